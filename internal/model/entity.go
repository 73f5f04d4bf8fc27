package model

import "github.com/jlewallen/dimsum/internal/document"

// Entity is one decoded world object. Scopes holds the component documents
// still undecoded, keyed by tag.
type Entity struct {
	Key      string                    `json:"key"`
	Version  int64                     `json:"version"`
	Parent   *EntityRef                `json:"parent,omitempty"`
	Creator  *EntityRef                `json:"creator,omitempty"`
	Identity Identity                  `json:"identity"`
	Class    string                    `json:"class"`
	Acls     Acls                      `json:"acls"`
	Props    document.Map              `json:"props"`
	Scopes   map[string]document.Value `json:"-"`
}

// EntityRef is a non-owning reference to another entity by key. Klass and
// Name are denormalized copies kept for display; they may be stale.
type EntityRef struct {
	Key   string `json:"key"`
	Klass string `json:"klass,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Identity is an entity's key material. A nil Signature is an accepted
// condition in persisted data and is preserved as-is.
type Identity struct {
	Public    string  `json:"public"`
	Private   string  `json:"private,omitempty"`
	Signature *string `json:"signature,omitempty"`
}

// AclRule grants Perm to holders of any of Keys.
type AclRule struct {
	Keys []string `json:"keys"`
	Perm string   `json:"perm"`
}

// Acls is an ordered list of access rules. Conflict resolution between rules
// belongs to the caller.
type Acls struct {
	Rules []AclRule `json:"rules"`
}

// Kind identifies the family an item belongs to, used to merge quantities.
type Kind struct {
	Identity Identity `json:"identity"`
}
