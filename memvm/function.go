package memvm

// functionalInterfaces lists the java/util/function interfaces the VM
// knows, each with its single abstract method.
var functionalInterfaces = []struct {
	path   string
	method string
	sig    string
}{
	{"java/util/function/Function", "apply", "(Ljava/lang/Object;)Ljava/lang/Object;"},
	{"java/util/function/IntFunction", "apply", "(I)Ljava/lang/Object;"},
	{"java/util/function/LongFunction", "apply", "(J)Ljava/lang/Object;"},
	{"java/util/function/DoubleFunction", "apply", "(D)Ljava/lang/Object;"},
	{"java/util/function/ToIntFunction", "applyAsInt", "(Ljava/lang/Object;)I"},
	{"java/util/function/ToLongFunction", "applyAsLong", "(Ljava/lang/Object;)J"},
	{"java/util/function/ToDoubleFunction", "applyAsDouble", "(Ljava/lang/Object;)D"},
	{"java/util/function/Predicate", "test", "(Ljava/lang/Object;)Z"},
	{"java/util/function/IntPredicate", "test", "(I)Z"},
	{"java/util/function/LongPredicate", "test", "(J)Z"},
	{"java/util/function/DoublePredicate", "test", "(D)Z"},
	{"java/util/function/Consumer", "accept", "(Ljava/lang/Object;)V"},
	{"java/util/function/IntConsumer", "accept", "(I)V"},
	{"java/util/function/LongConsumer", "accept", "(J)V"},
	{"java/util/function/DoubleConsumer", "accept", "(D)V"},
}

func functionDecls() []ClassDecl {
	decls := []ClassDecl{{
		Path:      "java/lang/AutoCloseable",
		Interface: true,
		Methods:   []MethodDecl{{Name: "close", Sig: "()V", Abstract: true}},
	}}
	for _, fi := range functionalInterfaces {
		decls = append(decls, ClassDecl{
			Path:      fi.path,
			Interface: true,
			Methods:   []MethodDecl{{Name: fi.method, Sig: fi.sig, Abstract: true}},
		})
	}
	return decls
}
