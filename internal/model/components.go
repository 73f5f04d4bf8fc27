package model

import "github.com/jlewallen/dimsum/internal/document"

// Component tags as they appear as keys of an entity's scope map.
const (
	TagCarryable          = "carryable"
	TagContaining         = "containing"
	TagLocation           = "location"
	TagOccupyable         = "occupyable"
	TagOccupying          = "occupying"
	TagExit               = "exit"
	TagOwnership          = "ownership"
	TagBehaviors          = "behaviors"
	TagBehaviorCollection = "behaviorCollection"
	TagEncyclopedia       = "encyclopedia"
	TagHealth             = "health"
	TagAuth               = "auth"
	TagWellKnown          = "wellKnown"
	TagUsernames          = "usernames"
	TagIdentifiers        = "identifiers"
	TagWeather            = "weather"
	TagPost               = "post"
	TagApparel            = "apparel"
	TagMovement           = "movement"
	TagMemory             = "memory"
	TagEdible             = "edible"
	TagKey                = "key"
	TagInteractable       = "interactable"
)

// Component is one decoded facet of an entity.
// Sealed: only the types in this file implement it.
type Component interface {
	Tag() string
	component()
}

// Unrecognized stands in for a component whose tag has no registered schema.
// It carries the tag and nothing else.
type Unrecognized struct {
	Name string `json:"name"`
}

func (u Unrecognized) Tag() string { return u.Name }
func (Unrecognized) component()    {}

// Carryable is an item that can be picked up, possibly in quantity.
type Carryable struct {
	Kind     Kind    `json:"kind"`
	Loose    bool    `json:"loose"`
	Quantity float64 `json:"quantity"`
	Acls     *Acls   `json:"acls,omitempty"`
}

func (Carryable) Tag() string { return TagCarryable }
func (Carryable) component()  {}

// Containing holds other entities.
type Containing struct {
	Capacity *int64       `json:"capacity,omitempty"`
	Holding  []EntityRef  `json:"holding"`
	Locked   bool         `json:"locked"`
	Openable document.Map `json:"openable,omitempty"`
	Pattern  document.Any `json:"pattern,omitzero"`
	Produces document.Map `json:"produces"`
	Acls     *Acls        `json:"acls,omitempty"`
}

func (Containing) Tag() string { return TagContaining }
func (Containing) component()  {}

// Location records what an entity is inside of.
type Location struct {
	Container *EntityRef `json:"container,omitempty"`
	Acls      *Acls      `json:"acls,omitempty"`
}

func (Location) Tag() string { return TagLocation }
func (Location) component()  {}

// Occupyable is an area living things can stand in.
type Occupyable struct {
	Occupancy int64       `json:"occupancy"`
	Occupied  []EntityRef `json:"occupied"`
	Acls      *Acls       `json:"acls,omitempty"`
}

func (Occupyable) Tag() string { return TagOccupyable }
func (Occupyable) component()  {}

// Occupying records the area a living thing is in.
type Occupying struct {
	Area EntityRef `json:"area"`
	Acls *Acls     `json:"acls,omitempty"`
}

func (Occupying) Tag() string { return TagOccupying }
func (Occupying) component()  {}

// Unavailable explains why an exit cannot currently be used.
type Unavailable struct {
	Reason string `json:"reason"`
}

// Exit leads to another area.
type Exit struct {
	Area        EntityRef    `json:"area"`
	Unavailable *Unavailable `json:"unavailable,omitempty"`
	Acls        *Acls        `json:"acls,omitempty"`
}

func (Exit) Tag() string { return TagExit }
func (Exit) component()  {}

// Ownership names the owning entity.
type Ownership struct {
	Owner EntityRef `json:"owner"`
}

func (Ownership) Tag() string { return TagOwnership }
func (Ownership) component()  {}

// BehaviorLog is the outcome of one behavior invocation.
type BehaviorLog struct {
	Context    document.Map `json:"context"`
	Logs       []string     `json:"logs"`
	Exceptions document.Any `json:"exceptions,omitzero"`
	Success    bool         `json:"success"`
	Time       float64      `json:"time"`
	Elapsed    float64      `json:"elapsed"`
}

// Behavior is a scripted handler attached to an entity.
type Behavior struct {
	Acls       *Acls         `json:"acls,omitempty"`
	Python     *string       `json:"python,omitempty"`
	Executable bool          `json:"executable"`
	Logs       []BehaviorLog `json:"logs"`
}

// BehaviorMap wraps behaviors keyed by name.
type BehaviorMap struct {
	Map map[string]Behavior `json:"map"`
}

// Behaviors is the set of behaviors an entity carries.
type Behaviors struct {
	Behaviors BehaviorMap `json:"behaviors"`
}

func (Behaviors) Tag() string { return TagBehaviors }
func (Behaviors) component()  {}

// BehaviorCollection indexes behavior summaries by entity key.
type BehaviorCollection struct {
	Entities map[string][]document.Map `json:"entities"`
}

func (BehaviorCollection) Tag() string { return TagBehaviorCollection }
func (BehaviorCollection) component()  {}

// Encyclopedia is a page of descriptive text.
type Encyclopedia struct {
	Acls *Acls  `json:"acls,omitempty"`
	Body string `json:"body"`
}

func (Encyclopedia) Tag() string { return TagEncyclopedia }
func (Encyclopedia) component()  {}

// Nutrition is an open property mapping.
type Nutrition struct {
	Properties document.Map `json:"properties"`
}

// Medical is the medical half of a health record.
type Medical struct {
	Nutrition Nutrition `json:"nutrition"`
}

// Health is a living thing's health record.
type Health struct {
	Medical Medical `json:"medical"`
}

func (Health) Tag() string { return TagHealth }
func (Health) component()  {}

// Auth holds an optional password credential pair.
type Auth struct {
	Password *[2]string `json:"password,omitempty"`
	Acls     *Acls      `json:"acls,omitempty"`
}

func (Auth) Tag() string { return TagAuth }
func (Auth) component()  {}

// WellKnown maps logical names to entity keys.
type WellKnown struct {
	Entities map[string]string `json:"entities"`
}

func (WellKnown) Tag() string { return TagWellKnown }
func (WellKnown) component()  {}

// Usernames maps usernames to entity keys.
type Usernames struct {
	Users map[string]string `json:"users"`
	Acls  *Acls             `json:"acls,omitempty"`
}

func (Usernames) Tag() string { return TagUsernames }
func (Usernames) component()  {}

// Identifiers records the world's group id counter.
type Identifiers struct {
	GID  int64 `json:"gid"`
	Acls *Acls `json:"acls,omitempty"`
}

func (Identifiers) Tag() string { return TagIdentifiers }
func (Identifiers) component()  {}

// Wind is the wind half of a weather record.
type Wind struct {
	Magnitude float64 `json:"magnitude"`
}

// Weather is an area's weather record.
type Weather struct {
	Wind Wind `json:"wind"`
}

func (Weather) Tag() string { return TagWeather }
func (Weather) component()  {}

// QueuedTime is the delivery time of a queued post.
type QueuedTime struct {
	Time string `json:"time"`
}

// QueuedPost is one message waiting for delivery to EntityKey.
type QueuedPost struct {
	EntityKey string     `json:"entity_key"`
	When      QueuedTime `json:"when"`
	Message   string     `json:"message"`
}

// Post is an outbox of timestamped messages.
type Post struct {
	Queue []QueuedPost `json:"queue"`
}

func (Post) Tag() string { return TagPost }
func (Post) component()  {}

// Apparel marks an entity as wearable.
type Apparel struct{}

func (Apparel) Tag() string { return TagApparel }
func (Apparel) component()  {}

// Movement marks an entity as able to move between areas.
type Movement struct{}

func (Movement) Tag() string { return TagMovement }
func (Movement) component()  {}

// Memory marks an entity as able to remember things.
type Memory struct{}

func (Memory) Tag() string { return TagMemory }
func (Memory) component()  {}

// Edible is something that can be eaten or drunk.
type Edible struct {
	Nutrition Nutrition `json:"nutrition"`
	Servings  int64     `json:"servings"`
}

func (Edible) Tag() string { return TagEdible }
func (Edible) component()  {}

// Key opens anything whose pattern matches one of Patterns.
type Key struct {
	Patterns map[string]Identity `json:"patterns"`
	Acls     *Acls               `json:"acls,omitempty"`
}

func (Key) Tag() string { return TagKey }
func (Key) component()  {}

// Interactable lists which interactions an entity supports.
type Interactable struct {
	Interactions map[string]bool `json:"interactions"`
}

func (Interactable) Tag() string { return TagInteractable }
func (Interactable) component()  {}
