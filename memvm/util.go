package memvm

import (
	"cmp"
	"slices"

	"github.com/wippyai/nativebind/managed"
)

const (
	iterableClass   = "java/lang/Iterable"
	collectionClass = "java/util/Collection"
	listClass       = "java/util/List"
	setClass        = "java/util/Set"
	mapClass        = "java/util/Map"
	entryClass      = "java/util/Map$Entry"
	iteratorClass   = "java/util/Iterator"
	arrayListClass  = "java/util/ArrayList"
	hashSetClass    = "java/util/HashSet"
	treeSetClass    = "java/util/TreeSet"
	hashMapClass    = "java/util/HashMap"
	treeMapClass    = "java/util/TreeMap"
	simpleEntry     = "java/util/AbstractMap$SimpleEntry"
	snapshotIter    = "java/util/ArrayList$Itr"

	objSig = "Ljava/lang/Object;"
)

// sequence is the payload of lists and sets. Hash sets keep insertion
// order; tree sets keep their items sorted.
type sequence struct {
	index  map[any]struct{}
	items  []managed.Value
	unique bool
	sorted bool
}

// dictionary is the payload of maps, with keys ordered like sequence items.
type dictionary struct {
	index  map[any]int
	keys   []managed.Value
	vals   []managed.Value
	sorted bool
}

type iterState struct {
	items []managed.Value
	pos   int
}

func utilDecls() []ClassDecl {
	return []ClassDecl{
		{Path: iterableClass, Interface: true, Methods: []MethodDecl{
			{Name: "iterator", Sig: "()Ljava/util/Iterator;", Abstract: true},
		}},
		{Path: collectionClass, Interface: true, Interfaces: []string{iterableClass}, Methods: []MethodDecl{
			{Name: "size", Sig: "()I", Abstract: true},
			{Name: "add", Sig: "(" + objSig + ")Z", Abstract: true},
			{Name: "contains", Sig: "(" + objSig + ")Z", Abstract: true},
		}},
		{Path: listClass, Interface: true, Interfaces: []string{collectionClass}, Methods: []MethodDecl{
			{Name: "get", Sig: "(I)" + objSig, Abstract: true},
		}},
		{Path: setClass, Interface: true, Interfaces: []string{collectionClass}},
		{Path: iteratorClass, Interface: true, Methods: []MethodDecl{
			{Name: "hasNext", Sig: "()Z", Abstract: true},
			{Name: "next", Sig: "()" + objSig, Abstract: true},
		}},
		{Path: entryClass, Interface: true, Methods: []MethodDecl{
			{Name: "getKey", Sig: "()" + objSig, Abstract: true},
			{Name: "getValue", Sig: "()" + objSig, Abstract: true},
		}},
		{Path: mapClass, Interface: true, Methods: []MethodDecl{
			{Name: "size", Sig: "()I", Abstract: true},
			{Name: "get", Sig: "(" + objSig + ")" + objSig, Abstract: true},
			{Name: "put", Sig: "(" + objSig + objSig + ")" + objSig, Abstract: true},
			{Name: "containsKey", Sig: "(" + objSig + ")Z", Abstract: true},
			{Name: "entrySet", Sig: "()Ljava/util/Set;", Abstract: true},
		}},
		{Path: snapshotIter, Interfaces: []string{iteratorClass}, Methods: []MethodDecl{
			{Name: "hasNext", Sig: "()Z", Impl: iterHasNext},
			{Name: "next", Sig: "()" + objSig, Impl: iterNext},
		}},
		{Path: simpleEntry, Interfaces: []string{entryClass}, Methods: []MethodDecl{
			{Name: "<init>", Sig: "(" + objSig + objSig + ")V", Impl: func(_ *Env, this *Object, args []managed.Value) (managed.Value, error) {
				this.payload = [2]managed.Value{args[0], args[1]}
				return nil, nil
			}},
			{Name: "getKey", Sig: "()" + objSig, Impl: func(_ *Env, this *Object, _ []managed.Value) (managed.Value, error) {
				return this.payload.([2]managed.Value)[0], nil
			}},
			{Name: "getValue", Sig: "()" + objSig, Impl: func(_ *Env, this *Object, _ []managed.Value) (managed.Value, error) {
				return this.payload.([2]managed.Value)[1], nil
			}},
		}},
		sequenceDecl(arrayListClass, listClass, false, false),
		sequenceDecl(hashSetClass, setClass, true, false),
		sequenceDecl(treeSetClass, setClass, true, true),
		dictionaryDecl(hashMapClass, false),
		dictionaryDecl(treeMapClass, true),
	}
}

func sequenceDecl(path, iface string, unique, sorted bool) ClassDecl {
	construct := func(_ *Env, this *Object, _ []managed.Value) (managed.Value, error) {
		this.payload = &sequence{unique: unique, sorted: sorted, index: map[any]struct{}{}}
		return nil, nil
	}
	methods := []MethodDecl{
		{Name: "<init>", Sig: "()V", Impl: construct},
		{Name: "<init>", Sig: "(I)V", Impl: construct},
		{Name: "size", Sig: "()I", Impl: func(_ *Env, this *Object, _ []managed.Value) (managed.Value, error) {
			this.mu.Lock()
			defer this.mu.Unlock()
			return int32(len(this.payload.(*sequence).items)), nil
		}},
		{Name: "add", Sig: "(" + objSig + ")Z", Impl: sequenceAdd},
		{Name: "contains", Sig: "(" + objSig + ")Z", Impl: func(_ *Env, this *Object, args []managed.Value) (managed.Value, error) {
			this.mu.Lock()
			defer this.mu.Unlock()
			return this.payload.(*sequence).contains(args[0]), nil
		}},
		{Name: "iterator", Sig: "()Ljava/util/Iterator;", Impl: func(env *Env, this *Object, _ []managed.Value) (managed.Value, error) {
			this.mu.Lock()
			items := slices.Clone(this.payload.(*sequence).items)
			this.mu.Unlock()
			return env.iterator(items), nil
		}},
	}
	if iface == listClass {
		methods = append(methods, MethodDecl{Name: "get", Sig: "(I)" + objSig, Impl: func(env *Env, this *Object, args []managed.Value) (managed.Value, error) {
			this.mu.Lock()
			defer this.mu.Unlock()
			items := this.payload.(*sequence).items
			i := args[0].(int32)
			if i < 0 || int(i) >= len(items) {
				return nil, env.Throw(indexOutOfBoundsClass, "Index %d out of bounds for length %d", i, len(items))
			}
			return items[i], nil
		}})
	}
	return ClassDecl{Path: path, Interfaces: []string{iface}, Methods: methods}
}

func sequenceAdd(env *Env, this *Object, args []managed.Value) (managed.Value, error) {
	this.mu.Lock()
	defer this.mu.Unlock()
	s := this.payload.(*sequence)
	v := args[0]
	if !s.unique {
		s.items = append(s.items, v)
		return true, nil
	}
	if s.contains(v) {
		return false, nil
	}
	at := len(s.items)
	if s.sorted {
		var err error
		at, err = env.insertionPoint(s.items, v)
		if err != nil {
			return nil, err
		}
	}
	s.items = slices.Insert(s.items, at, v)
	s.index[keyOfValue(v)] = struct{}{}
	return true, nil
}

func (s *sequence) contains(v managed.Value) bool {
	if s.unique {
		_, ok := s.index[keyOfValue(v)]
		return ok
	}
	k := keyOfValue(v)
	return slices.ContainsFunc(s.items, func(item managed.Value) bool { return keyOfValue(item) == k })
}

func dictionaryDecl(path string, sorted bool) ClassDecl {
	return ClassDecl{
		Path:       path,
		Interfaces: []string{mapClass},
		Methods: []MethodDecl{
			{Name: "<init>", Sig: "()V", Impl: func(_ *Env, this *Object, _ []managed.Value) (managed.Value, error) {
				this.payload = &dictionary{sorted: sorted, index: map[any]int{}}
				return nil, nil
			}},
			{Name: "size", Sig: "()I", Impl: func(_ *Env, this *Object, _ []managed.Value) (managed.Value, error) {
				this.mu.Lock()
				defer this.mu.Unlock()
				return int32(len(this.payload.(*dictionary).keys)), nil
			}},
			{Name: "get", Sig: "(" + objSig + ")" + objSig, Impl: func(_ *Env, this *Object, args []managed.Value) (managed.Value, error) {
				this.mu.Lock()
				defer this.mu.Unlock()
				d := this.payload.(*dictionary)
				if i, ok := d.index[keyOfValue(args[0])]; ok {
					return d.vals[i], nil
				}
				return nil, nil
			}},
			{Name: "containsKey", Sig: "(" + objSig + ")Z", Impl: func(_ *Env, this *Object, args []managed.Value) (managed.Value, error) {
				this.mu.Lock()
				defer this.mu.Unlock()
				_, ok := this.payload.(*dictionary).index[keyOfValue(args[0])]
				return ok, nil
			}},
			{Name: "put", Sig: "(" + objSig + objSig + ")" + objSig, Impl: dictionaryPut},
			{Name: "entrySet", Sig: "()Ljava/util/Set;", Impl: func(env *Env, this *Object, _ []managed.Value) (managed.Value, error) {
				this.mu.Lock()
				d := this.payload.(*dictionary)
				keys, vals := slices.Clone(d.keys), slices.Clone(d.vals)
				this.mu.Unlock()

				set := &sequence{unique: true, index: map[any]struct{}{}}
				for i := range keys {
					entry := &Object{cls: env.mustClass(simpleEntry), payload: [2]managed.Value{keys[i], vals[i]}}
					set.items = append(set.items, entry)
					set.index[entry] = struct{}{}
				}
				return &Object{cls: env.mustClass(hashSetClass), payload: set}, nil
			}},
		},
	}
}

func dictionaryPut(env *Env, this *Object, args []managed.Value) (managed.Value, error) {
	this.mu.Lock()
	defer this.mu.Unlock()
	d := this.payload.(*dictionary)
	k := keyOfValue(args[0])
	if i, ok := d.index[k]; ok {
		prev := d.vals[i]
		d.vals[i] = args[1]
		return prev, nil
	}
	at := len(d.keys)
	if d.sorted {
		var err error
		at, err = env.insertionPoint(d.keys, args[0])
		if err != nil {
			return nil, err
		}
	}
	d.keys = slices.Insert(d.keys, at, args[0])
	d.vals = slices.Insert(d.vals, at, args[1])
	for i := at; i < len(d.keys); i++ {
		d.index[keyOfValue(d.keys[i])] = i
	}
	return nil, nil
}

func iterHasNext(_ *Env, this *Object, _ []managed.Value) (managed.Value, error) {
	this.mu.Lock()
	defer this.mu.Unlock()
	it := this.payload.(*iterState)
	return it.pos < len(it.items), nil
}

func iterNext(env *Env, this *Object, _ []managed.Value) (managed.Value, error) {
	this.mu.Lock()
	defer this.mu.Unlock()
	it := this.payload.(*iterState)
	if it.pos >= len(it.items) {
		return nil, env.Throw(noSuchElementClass, "iterator exhausted")
	}
	v := it.items[it.pos]
	it.pos++
	return v, nil
}

func (e *Env) iterator(items []managed.Value) *Object {
	return &Object{cls: e.mustClass(snapshotIter), payload: &iterState{items: items}}
}

// insertionPoint returns where v belongs in the sorted slice items.
func (e *Env) insertionPoint(items []managed.Value, v managed.Value) (int, error) {
	var cmpErr error
	at, _ := slices.BinarySearchFunc(items, v, func(item, target managed.Value) int {
		c, err := e.compare(item, target)
		if err != nil && cmpErr == nil {
			cmpErr = err
		}
		return c
	})
	return at, cmpErr
}

// compare orders two references by natural ordering. Only strings, boxed
// primitives, enum constants and java/time values are comparable.
func (e *Env) compare(a, b managed.Value) (int, error) {
	x, _ := asObject(a)
	y, _ := asObject(b)
	if x == nil || y == nil {
		return 0, e.Throw(nullPointerClass, "null element in sorted collection")
	}
	if x.cls != y.cls {
		return 0, e.Throw(classCastClass, "%s cannot be compared with %s", x.cls.path, y.cls.path)
	}
	switch p := x.payload.(type) {
	case string:
		return cmp.Compare(p, y.payload.(string)), nil
	case bool:
		return cmp.Compare(boolOrder(p), boolOrder(y.payload.(bool))), nil
	case int8:
		return cmp.Compare(p, y.payload.(int8)), nil
	case uint16:
		return cmp.Compare(p, y.payload.(uint16)), nil
	case int16:
		return cmp.Compare(p, y.payload.(int16)), nil
	case int32:
		return cmp.Compare(p, y.payload.(int32)), nil
	case int64:
		return cmp.Compare(p, y.payload.(int64)), nil
	case float32:
		return cmp.Compare(p, y.payload.(float32)), nil
	case float64:
		return cmp.Compare(p, y.payload.(float64)), nil
	case enumConstant:
		return cmp.Compare(p.ordinal, y.payload.(enumConstant).ordinal), nil
	case durationValue:
		return p.compare(y.payload.(durationValue)), nil
	case instantValue:
		return p.compare(y.payload.(instantValue)), nil
	}
	return 0, e.Throw(classCastClass, "%s is not comparable", x.cls.path)
}

func boolOrder(b bool) int {
	if b {
		return 1
	}
	return 0
}

func keyOfValue(v managed.Value) any {
	o, _ := asObject(v)
	return keyOf(o)
}
