// Package refs enumerates and resolves cross-entity references.
//
// References are weak: decoding never follows them and an entity whose
// references point nowhere still decodes. Following a reference is always
// an explicit lookup through a Resolver.
package refs
