package solver

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/tsolve/internal/log"
	"github.com/cottand/tsolve/solver/tserr"
	"github.com/hashicorp/go-set/v3"
	"github.com/pkg/errors"
)

type DefKind uint8

const (
	DefTypeAlias DefKind = iota
	DefInterface
	DefClass
	DefEnum
)

var defKindNames = [...]string{DefTypeAlias: "type alias", DefInterface: "interface", DefClass: "class", DefEnum: "enum"}

func (k DefKind) String() string { return defKindNames[k] }

// Structural reports whether references to the kind may be replaced by their body
// for identity purposes. Interfaces, classes and enums keep their nominal Lazy reference.
func (k DefKind) Structural() bool { return k == DefTypeAlias }

// Definition is what the binder knows about a named type declaration
type Definition struct {
	Name string
	Kind DefKind
	// TypeParams are TypeParameter ids, in declaration order
	TypeParams []TypeID
	// Body is the lowered declaration, NoType until lowered
	Body TypeID
	// Extends lists the classes (or interfaces) this declaration inherits from
	Extends []DefID
}

type resolveState uint8

const (
	unresolved resolveState = iota
	resolving
	resolved
)

type defEntry struct {
	Definition
	lower func() TypeID
	state resolveState
}

type symbolEntry struct {
	name string
	typ  TypeID
}

// DefRegistry assigns DefIDs to declarations and SymbolIDs to values, and resolves
// Lazy references to declaration bodies.
//
// There must be exactly one DefRegistry per compilation, shared by every worker
// together with its Interner (see Universe): a second registry would hand out
// DefIDs colliding with the first one's.
type DefRegistry struct {
	in *Interner

	mu       sync.RWMutex
	defs     []*defEntry
	symbols  []symbolEntry
	circular *set.Set[DefID]
	// ancestors caches the transitive Extends closure per class
	ancestors map[DefID]immutable.Set[DefID]

	logger *slog.Logger
}

func NewDefRegistry(in *Interner) *DefRegistry {
	return &DefRegistry{
		in:        in,
		defs:      make([]*defEntry, 1),
		symbols:   make([]symbolEntry, 1),
		circular:  set.New[DefID](0),
		ancestors: make(map[DefID]immutable.Set[DefID]),
		logger:    log.For("solver.defs"),
	}
}

// Register adds a declaration whose body is already known (or will be set with SetBody)
func (r *DefRegistry) Register(def Definition) DefID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := DefID(len(r.defs))
	entry := &defEntry{Definition: def, state: unresolved}
	if def.Body != NoType {
		entry.state = resolved
	}
	entry.TypeParams = slices.Clone(def.TypeParams)
	entry.Extends = slices.Clone(def.Extends)
	r.defs = append(r.defs, entry)
	r.logger.Debug("registered definition", "id", id, "name", def.Name, "kind", def.Kind)
	return id
}

// Define registers a declaration whose body is lowered on first resolution.
// lower may itself resolve other definitions, including this one.
func (r *DefRegistry) Define(def Definition, lower func() TypeID) DefID {
	id := r.Register(def)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[id].lower = lower
	return id
}

func (r *DefRegistry) SetBody(id DefID, body TypeID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, err := r.entryLocked(id)
	if err != nil {
		return err
	}
	entry.Body = body
	entry.state = resolved
	return nil
}

// SetExtends records the heritage of a class or interface, after registration
// since heritage clauses may refer to declarations registered later
func (r *DefRegistry) SetExtends(id DefID, bases ...DefID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, err := r.entryLocked(id)
	if err != nil {
		return err
	}
	entry.Extends = slices.Clone(bases)
	clear(r.ancestors)
	return nil
}

func (r *DefRegistry) entryLocked(id DefID) (*defEntry, error) {
	if id == 0 || int(id) >= len(r.defs) {
		return nil, errors.Wrapf(tserr.ErrUnknownDefinition, "definition id %d", id)
	}
	return r.defs[id], nil
}

// Definition returns a copy of the declaration registered as id
func (r *DefRegistry) Definition(id DefID) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, err := r.entryLocked(id)
	if err != nil {
		return Definition{}, false
	}
	return entry.Definition, true
}

// Lookup finds a definition by name, the first registered wins
func (r *DefRegistry) Lookup(name string) (DefID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i, entry := range r.defs {
		if entry != nil && entry.Name == name {
			return DefID(i), true
		}
	}
	return 0, false
}

// ResolveLazy returns the body of def. If def is being lowered further up the
// call stack, its Lazy reference is returned as a placeholder instead.
// Chains of aliases aliasing aliases are followed; an alias chain that loops
// back onto itself resolves to the error type and every member of the loop is
// reported by CircularAliases.
func (r *DefRegistry) ResolveLazy(def DefID) TypeID {
	body, err := r.resolve(def)
	if err != nil {
		r.in.addFailure(err)
		return TypeError
	}
	return body
}

func (r *DefRegistry) resolve(def DefID) (TypeID, error) {
	r.mu.Lock()
	entry, err := r.entryLocked(def)
	if err != nil {
		r.mu.Unlock()
		return TypeError, err
	}
	switch entry.state {
	case resolved:
		body := entry.Body
		r.mu.Unlock()
		return r.followAlias(def, body), nil
	case resolving:
		r.mu.Unlock()
		r.logger.Debug("definition resolved while in progress, using placeholder", "def", def, "name", entry.Name)
		return r.in.Lazy(def), nil
	}
	if entry.lower == nil {
		r.mu.Unlock()
		return TypeError, errors.Errorf("definition %q (%d) has no body", entry.Name, def)
	}
	entry.state = resolving
	lower := entry.lower
	r.mu.Unlock()

	body := lower()

	r.mu.Lock()
	entry.Body = body
	entry.state = resolved
	r.mu.Unlock()
	return r.followAlias(def, body), nil
}

// followAlias chases `type A = B` where B is itself an alias
func (r *DefRegistry) followAlias(def DefID, body TypeID) TypeID {
	chain := []DefID{def}
	for {
		lazy, ok := r.in.shape(body).(Lazy)
		if !ok {
			return body
		}
		next, ok := r.Definition(lazy.Def)
		if !ok || next.Kind != DefTypeAlias {
			return body
		}
		if i := slices.Index(chain, lazy.Def); i >= 0 {
			r.markCircular(chain[i:]...)
			return TypeError
		}
		chain = append(chain, lazy.Def)
		if next.Body == NoType {
			resolvedBody, err := r.resolve(lazy.Def)
			if err != nil {
				r.in.addFailure(err)
				return TypeError
			}
			return resolvedBody
		}
		body = next.Body
	}
}

func (r *DefRegistry) markCircular(defs ...DefID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range defs {
		if r.circular.Insert(d) {
			r.logger.Warn("circular type alias", "def", d, "name", r.defs[d].Name)
		}
	}
}

// CircularAliases returns every alias found to be part of an alias cycle, in DefID order
func (r *DefRegistry) CircularAliases() []DefID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	found := r.circular.Slice()
	slices.Sort(found)
	return found
}

// IsDerivedFrom reports whether class is base or inherits from it, transitively
func (r *DefRegistry) IsDerivedFrom(class, base DefID) bool {
	if class == base {
		return true
	}
	return r.ancestorsOf(class).Has(base)
}

func (r *DefRegistry) ancestorsOf(class DefID) immutable.Set[DefID] {
	r.mu.RLock()
	cached, ok := r.ancestors[class]
	r.mu.RUnlock()
	if ok {
		return cached
	}
	acc := immutable.NewSet[DefID](idHasher[DefID]{})
	var visit func(DefID)
	visit = func(d DefID) {
		def, ok := r.Definition(d)
		if !ok {
			return
		}
		for _, parent := range def.Extends {
			if acc.Has(parent) {
				continue
			}
			acc = acc.Add(parent)
			visit(parent)
		}
	}
	visit(class)
	r.mu.Lock()
	r.ancestors[class] = acc
	r.mu.Unlock()
	return acc
}

// DeclareSymbol records a value declaration of type typ, for `typeof` queries
func (r *DefRegistry) DeclareSymbol(name string, typ TypeID) SymbolID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.symbols = append(r.symbols, symbolEntry{name: name, typ: typ})
	return SymbolID(len(r.symbols) - 1)
}

// SetSymbolType replaces the declared type of sym, used once its initializer has been checked
func (r *DefRegistry) SetSymbolType(sym SymbolID, typ TypeID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sym == 0 || int(sym) >= len(r.symbols) {
		return errors.Wrapf(tserr.ErrUnknownSymbol, "symbol id %d", sym)
	}
	r.symbols[sym].typ = typ
	return nil
}

func (r *DefRegistry) SymbolType(sym SymbolID) (TypeID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if sym == 0 || int(sym) >= len(r.symbols) {
		return NoType, false
	}
	return r.symbols[sym].typ, true
}

func (r *DefRegistry) SymbolName(sym SymbolID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if sym == 0 || int(sym) >= len(r.symbols) {
		return "?"
	}
	return r.symbols[sym].name
}
