package resolver

import (
	"fmt"
	"slices"

	"tyck/internal/ast"
	"tyck/internal/diag"
	"tyck/internal/symbols"
	"tyck/internal/types"
	"tyck/internal/typesyntax"
)

// signaturesWalk attaches `sig` annotations to the methods they precede,
// processes declarations made in class bodies and types constants.
type signaturesWalk struct {
	s *state
	owners
}

func newSignaturesWalk(s *state) *signaturesWalk {
	return &signaturesWalk{s: s, owners: owners{table: s.table}}
}

func (w *signaturesWalk) PreTransform(n ast.Node) ast.Node {
	w.enter(n)
	return n
}

func (w *signaturesWalk) PostTransform(n ast.Node) ast.Node {
	switch n := n.(type) {
	case *ast.ClassDef:
		w.processClassBody(n)
		w.leave(n)
		return n
	case *ast.MethodDef:
		w.leave(n)
		return n
	case *ast.Assign:
		return w.postAssign(n)
	case *ast.Send:
		return w.postSend(n)
	default:
		return n
	}
}

func (w *signaturesWalk) isSelf(n ast.Node) bool {
	_, ok := n.(*ast.Self)
	return ok
}

// processClassBody pairs each method definition with the `sig` sends
// directly before it and strips the declaration sends it consumes.
func (w *signaturesWalk) processClassBody(c *ast.ClassDef) {
	s, t := w.s, w.s.table
	klass := c.Symbol
	var lastSigs []*ast.Send

	kept := c.Body[:0]
	for _, stat := range c.Body {
		switch st := stat.(type) {
		case *ast.Send:
			if s.sigs.IsSig(t, st) {
				if len(lastSigs) > 0 && !w.permitOverloads(klass) {
					if e := s.beginError(lastSigs[0].Loc, diag.ResInvalidMethodSignature,
						"Unused type annotation. No method def before next annotation"); e != nil {
						e.WithNote(st.Loc, "Type annotation that will be used instead").Emit()
					}
					lastSigs = lastSigs[:0]
				}
				lastSigs = append(lastSigs, st)
				continue
			}
			if w.isSelf(st.Recv) {
				switch st.Fun {
				case s.names.declareVariables:
					w.processDeclareVariables(klass, st)
					continue
				case s.names.mixesInClassMethods:
					w.processMixesInClassMethods(klass, st)
					continue
				case s.names.requiresAncestor:
					if s.opts.RequiresAncestor {
						w.processRequiresAncestor(klass, st)
						continue
					}
				}
			}
			kept = append(kept, st)

		case *ast.MethodDef:
			if len(lastSigs) > 0 {
				w.applySigs(st, lastSigs)
				lastSigs = nil
			}
			kept = append(kept, st)

		case *ast.EmptyTree:
			// dropped

		default:
			kept = append(kept, st)
		}
	}
	if len(lastSigs) > 0 {
		if e := s.beginError(lastSigs[0].Loc, diag.ResInvalidMethodSignature, "Malformed `sig`. No method def following it"); e != nil {
			e.Emit()
		}
	}
	clear(c.Body[len(kept):])
	c.Body = kept
}

// permitOverloads reports whether klass may declare a method with several
// signatures. Only trusted declarations may.
func (w *signaturesWalk) permitOverloads(klass symbols.ClassRef) bool {
	return w.s.trust.Trusted(w.s.table.Class(klass).Loc())
}

func (w *signaturesWalk) applySigs(mdef *ast.MethodDef, sigs []*ast.Send) {
	s, t := w.s, w.s.table
	method := mdef.Symbol
	enforce(method.Exists(), "method definition without a symbol")
	s.opts.Counters.Add("types.sig.count", int64(len(sigs)))

	overloaded := len(sigs) > 1
	for i, sig := range sigs {
		target := method
		if overloaded && i+1 < len(sigs) {
			target = t.EnterMethodOverload(sig.Loc, method, i+1)
			ov := t.Method(target)
			ov.Args = slices.Clone(t.Method(method).Args)
			ov.Flags |= symbols.MethodFlagOverloaded
		}
		if overloaded {
			t.Method(target).Flags |= symbols.MethodFlagOverloaded
		}
		w.fillInInfoFromSig(target, sig, overloaded)
	}

	if t.Method(method).IsAbstract() && !ast.IsEmpty(mdef.Body) {
		if e := s.beginError(mdef.Body.Span(), diag.ResAbstractMethodWithBody,
			"Abstract methods must not contain any code in their body"); e != nil {
			e.Emit()
		}
		mdef.Body = ast.Empty(mdef.Body.Span())
	}
}

func (w *signaturesWalk) fillInInfoFromSig(method symbols.MethodRef, send *ast.Send, overloaded bool) {
	s, t := w.s, w.s.table
	sig := s.sigs.ParseSig(t, send)
	m := t.Method(method)

	if !sig.Seen.Returns {
		modifiers := sig.Seen.Abstract || sig.Seen.Override || sig.Seen.Implementation || sig.Seen.Overridable
		if sig.Seen.Args || !modifiers {
			if e := s.beginError(send.Loc, diag.ResInvalidMethodSignature,
				"Malformed `sig`: No return type specified. Specify one with .returns()"); e != nil {
				e.Emit()
			}
		}
	}
	if sig.Seen.Abstract {
		m.Flags |= symbols.MethodFlagAbstract
	}
	if sig.Seen.Override {
		m.Flags |= symbols.MethodFlagOverride
	}
	if sig.Seen.Overridable {
		m.Flags |= symbols.MethodFlagOverridable
	}
	if sig.Seen.Implementation {
		m.Flags |= symbols.MethodFlagImplementation
	}
	if sig.Seen.Final {
		m.Flags |= symbols.MethodFlagFinal
	}
	m.ResultType = sig.Returns

	specs := slices.Clone(sig.Args)
	kept := m.Args[:0]
	for _, arg := range m.Args {
		idx := slices.IndexFunc(specs, func(spec typesyntax.ArgSpec) bool { return spec.Name == arg.Name })
		switch {
		case idx >= 0:
			arg.ResultType = specs[idx].Type
			arg.Loc = specs[idx].Loc
			specs = slices.Delete(specs, idx, idx+1)
		case overloaded:
			// overloads keep only the arguments their sig names
			continue
		case arg.ResultType == types.NoTypeID:
			arg.ResultType = t.Types.Untyped()
			if sig.Seen.Args || sig.Seen.Returns {
				if e := s.beginError(arg.Loc, diag.ResInvalidMethodSignature,
					fmt.Sprintf("Malformed `sig`. Type not specified for argument `%s`", s.str(arg.Name))); e != nil {
					e.Emit()
				}
			}
		}
		if overloaded && arg.IsKeyword() {
			if e := s.beginError(arg.Loc, diag.ResInvalidMethodSignature,
				fmt.Sprintf("Malformed `sig`. Overloaded functions cannot have keyword arguments: `%s`", s.str(arg.Name))); e != nil {
				e.Emit()
			}
		}
		kept = append(kept, arg)
	}
	m.Args = kept

	for _, spec := range specs {
		if e := s.beginError(spec.Loc, diag.ResInvalidMethodSignature,
			fmt.Sprintf("Unknown argument name `%s`", s.str(spec.Name))); e != nil {
			e.Emit()
		}
	}
}

// processDeclareVariables handles `declare_variables(:@x => Type, ...)`.
func (w *signaturesWalk) processDeclareVariables(klass symbols.ClassRef, send *ast.Send) {
	s, t := w.s, w.s.table
	if len(send.Args) != 1 {
		if e := s.beginError(send.Loc, diag.ResInvalidDeclareVariables,
			fmt.Sprintf("Wrong number of arguments to `declare_variables`: expected 1, got %d", len(send.Args))); e != nil {
			e.Emit()
		}
		return
	}
	hash, ok := send.Args[0].(*ast.Hash)
	if !ok {
		if e := s.beginError(send.Args[0].Span(), diag.ResInvalidDeclareVariables,
			"Malformed `declare_variables`: expected a hash literal"); e != nil {
			e.Emit()
		}
		return
	}
	for i, key := range hash.Keys {
		lit, ok := key.(*ast.Literal)
		if !ok || (lit.Kind != ast.LitSymbol && lit.Kind != ast.LitString) {
			if e := s.beginError(key.Span(), diag.ResInvalidDeclareVariables,
				"Malformed `declare_variables`: keys must be variable names"); e != nil {
				e.Emit()
			}
			continue
		}
		name := t.Strings.InternIdent(lit.Value)
		typ := s.sigs.ResultType(t, hash.Values[i])
		var ref symbols.FieldRef
		isVar := len(lit.Value) > 1 && lit.Value[0] == '@'
		if prior := t.FindMember(klass, name); isVar && prior.Exists() {
			if e := s.beginError(lit.Loc, diag.ResDuplicateVariableDeclaration,
				fmt.Sprintf("Redeclaring variable `%s`", lit.Value)); e != nil {
				e.WithNote(t.Loc(prior), "Previous declaration is here:").Emit()
			}
			// повторное объявление переиспользует прежнее поле
			if ref = prior.AsField(); ref.Exists() {
				t.Field(ref).ResultType = typ
			}
			continue
		}
		switch {
		case len(lit.Value) > 2 && lit.Value[:2] == "@@":
			ref = t.EnterStaticField(lit.Loc, klass, name)
		case len(lit.Value) > 1 && lit.Value[0] == '@':
			ref = t.EnterField(lit.Loc, klass, name)
		default:
			if e := s.beginError(lit.Loc, diag.ResInvalidDeclareVariables,
				fmt.Sprintf("Malformed `declare_variables`: `%s` is not a variable name", lit.Value)); e != nil {
				e.Emit()
			}
			continue
		}
		t.Field(ref).ResultType = typ
	}
}

// processMixesInClassMethods records the class-methods module of a mixin
// module. Each distinct module is appended once to the tuple carried by the
// module's synthetic class-methods member.
func (w *signaturesWalk) processMixesInClassMethods(klass symbols.ClassRef, send *ast.Send) {
	s, t := w.s, w.s.table
	if !t.Class(klass).IsModule() {
		if e := s.beginError(send.Loc, diag.ResInvalidMixinDeclaration,
			fmt.Sprintf("`%s` can only be declared inside a module, not a class", s.str(send.Fun))); e != nil {
			e.Emit()
		}
		// continue processing
	}
	if len(send.Args) != 1 {
		if e := s.beginError(send.Loc, diag.ResInvalidMixinDeclaration,
			fmt.Sprintf("Wrong number of arguments to `%s`: expected 1, got %d", s.str(send.Fun), len(send.Args))); e != nil {
			e.Emit()
		}
		return
	}
	arg := send.Args[0]
	var module symbols.ClassRef
	if id, ok := arg.(*ast.Ident); ok {
		module = s.dealiasConstant(id.Symbol)
	}
	if !module.Exists() || module == symbols.Untyped {
		if e := s.beginError(arg.Span(), diag.ResInvalidMixinDeclaration,
			fmt.Sprintf("Argument to `%s` must be statically resolvable to a module", s.str(send.Fun))); e != nil {
			e.Emit()
		}
		return
	}
	if t.Class(module).IsClass() {
		if e := s.beginError(arg.Span(), diag.ResInvalidMixinDeclaration,
			fmt.Sprintf("`%s` is a class, not a module; Only modules may be mixins", t.ShowClass(module))); e != nil {
			e.Emit()
		}
		return
	}
	if module == klass {
		if e := s.beginError(arg.Span(), diag.ResInvalidMixinDeclaration,
			fmt.Sprintf("Must not pass your self to `%s`", s.str(send.Fun))); e != nil {
			e.Emit()
		}
		return
	}

	carrier := t.FindMember(klass, t.MixedInClassMethodsName())
	element := t.Types.Class(uint32(module))
	if !carrier.IsMethod() {
		ref := t.EnterMethod(send.Loc, klass, t.MixedInClassMethodsName())
		m := t.Method(ref)
		m.Flags |= symbols.MethodFlagGenerated
		m.ResultType = t.Types.Tuple([]types.TypeID{element})
		return
	}
	m := t.Method(carrier.AsMethod())
	elems, ok := t.Types.TupleElems(m.ResultType)
	enforce(ok, "class-methods carrier of %s is not a tuple", t.ShowClass(klass))
	if slices.Contains(elems, element) {
		if e := s.beginError(arg.Span(), diag.ResInvalidMixinDeclaration,
			fmt.Sprintf("Redundant `%s` declaration for `%s`", s.str(send.Fun), t.ShowClass(module))); e != nil {
			e.WithNote(m.Loc, "Previously declared here").Emit()
		}
		return
	}
	m.ResultType = t.Types.Tuple(append(slices.Clone(elems), element))
}

// processRequiresAncestor records `requires_ancestor(A, ...)`.
func (w *signaturesWalk) processRequiresAncestor(klass symbols.ClassRef, send *ast.Send) {
	s, t := w.s, w.s.table
	data := t.Class(klass)
	if !data.IsModule() && !data.IsAbstract() {
		if e := s.beginError(send.Loc, diag.ResInvalidRequiredAncestor,
			"`requires_ancestor` can only be declared inside a module or an abstract class"); e != nil {
			e.Emit()
		}
		return
	}
	if len(send.Args) == 0 {
		if e := s.beginError(send.Loc, diag.ResInvalidRequiredAncestor,
			"`requires_ancestor` must be given at least one class or module"); e != nil {
			e.Emit()
		}
		return
	}
	for _, arg := range send.Args {
		var anc symbols.ClassRef
		if id, ok := arg.(*ast.Ident); ok {
			anc = s.dealiasConstant(id.Symbol)
		}
		switch {
		case !anc.Exists() || anc == symbols.Untyped:
			if e := s.beginError(arg.Span(), diag.ResInvalidRequiredAncestor,
				"Argument to `requires_ancestor` must be statically resolvable to a class or a module"); e != nil {
				e.Emit()
			}
		case anc == klass:
			if e := s.beginError(arg.Span(), diag.ResInvalidRequiredAncestor,
				"Must not pass yourself to `requires_ancestor`"); e != nil {
				e.Emit()
			}
		default:
			data.RequiredAncestors = append(data.RequiredAncestors, symbols.RequiredAncestor{Class: anc, Loc: arg.Span()})
		}
	}
}

// postSend turns `T.let`, `T.cast` and `T.assert_type!` into Cast nodes.
func (w *signaturesWalk) postSend(send *ast.Send) ast.Node {
	s, t := w.s, w.s.table
	recv, ok := send.Recv.(*ast.Ident)
	if !ok || recv.Symbol.AsClass() != symbols.T {
		return send
	}
	switch send.Fun {
	case s.names.let, s.names.cast, s.names.assertType:
	default:
		return send
	}
	if len(send.Args) < 2 {
		if e := s.beginError(send.Loc, diag.ResInvalidCast,
			fmt.Sprintf("Not enough arguments to `T.%s`: expected 2, got %d", s.str(send.Fun), len(send.Args))); e != nil {
			e.Emit()
		}
		return send
	}
	return &ast.Cast{
		Loc:  send.Loc,
		Type: s.sigs.ResultType(t, send.Args[1]),
		Expr: send.Args[0],
		Cast: send.Fun,
	}
}

func (w *signaturesWalk) postAssign(a *ast.Assign) ast.Node {
	if w.handleDeclaration(a) {
		return a
	}
	id, ok := a.LHS.(*ast.Ident)
	if !ok {
		return a
	}
	t := w.s.table
	switch {
	case id.Symbol.IsTypeMember():
		w.processTypeMemberBounds(id.Symbol.AsTypeMember(), a.RHS)
	case id.Symbol.IsStaticField():
		f := t.Field(id.Symbol.AsField())
		if f.ResultType == types.NoTypeID {
			f.ResultType = w.resolveConstantType(a.RHS)
		}
	}
	return a
}

// handleDeclaration declares `@x = T.let(...)` and `@@x = T.let(...)`.
// It reports whether the assignment was a declaration.
func (w *signaturesWalk) handleDeclaration(a *ast.Assign) bool {
	s, t := w.s, w.s.table
	uid, ok := a.LHS.(*ast.UnresolvedIdent)
	if !ok {
		return false
	}
	cast, ok := a.RHS.(*ast.Cast)
	if !ok {
		return false
	}

	var scope symbols.ClassRef
	owner := w.owner()
	switch uid.Kind {
	case ast.IdentClass:
		if !owner.IsClassOrModule() {
			if e := s.beginError(uid.Loc, diag.ResInvalidDeclareVariables,
				"Class variables must be declared at class scope"); e != nil {
				e.Emit()
			}
		}
		scope = w.contextClass()
	case ast.IdentInstance:
		if owner.IsMethod() && t.Method(owner.AsMethod()).Name != t.InitializeName() {
			if e := s.beginError(uid.Loc, diag.ResInvalidDeclareVariables,
				"Instance variables must be declared inside `initialize`"); e != nil {
				e.Emit()
			}
		}
		scope = w.selfClass()
	default:
		return false
	}

	if prior := t.FindMember(scope, uid.Name); prior.Exists() {
		if e := s.beginError(uid.Loc, diag.ResDuplicateVariableDeclaration, "Illegal variable redeclaration"); e != nil {
			e.WithNote(t.Loc(prior), "Previous declaration is here:").Emit()
		}
		return false
	}

	var ref symbols.FieldRef
	if uid.Kind == ast.IdentClass {
		ref = t.EnterStaticField(uid.Loc, scope, uid.Name)
	} else {
		ref = t.EnterField(uid.Loc, scope, uid.Name)
	}
	t.Field(ref).ResultType = cast.Type
	return true
}

// processTypeMemberBounds reads `fixed:`, `lower:` and `upper:` options of
// `type_member(...)` / `type_template(...)`.
func (w *signaturesWalk) processTypeMemberBounds(ref symbols.TypeMemberRef, rhs ast.Node) {
	s, t := w.s, w.s.table
	send, ok := rhs.(*ast.Send)
	if !ok || (send.Fun != s.names.typeMember && send.Fun != s.names.typeTemplate) {
		return
	}
	tm := t.TypeMember(ref)
	for _, arg := range send.Args {
		hash, ok := arg.(*ast.Hash)
		if !ok {
			continue
		}
		for i, key := range hash.Keys {
			lit, ok := key.(*ast.Literal)
			if !ok || lit.Kind != ast.LitSymbol {
				continue
			}
			bound := s.sigs.ResultType(t, hash.Values[i])
			switch t.Strings.InternIdent(lit.Value) {
			case s.names.fixed:
				tm.Fixed = true
				tm.Lower, tm.Upper = bound, bound
			case s.names.lower:
				tm.Lower = bound
			case s.names.upper:
				tm.Upper = bound
			}
		}
	}
}

// resolveConstantType infers the type of a constant from its value.
func (w *signaturesWalk) resolveConstantType(expr ast.Node) types.TypeID {
	s, t := w.s, w.s.table
	class := func(ref symbols.ClassRef) types.TypeID { return t.Types.Class(uint32(ref)) }
	switch e := expr.(type) {
	case *ast.Literal:
		switch e.Kind {
		case ast.LitInt:
			return class(symbols.Integer)
		case ast.LitFloat:
			return class(symbols.Float)
		case ast.LitString:
			return class(symbols.String)
		case ast.LitSymbol:
			return class(symbols.SymbolClass)
		case ast.LitTrue:
			return class(symbols.TrueClass)
		case ast.LitFalse:
			return class(symbols.FalseClass)
		case ast.LitNil:
			return class(symbols.NilClass)
		}
	case *ast.Cast:
		if e.Cast != s.names.let {
			if err := s.beginError(e.Loc, diag.ResConstantAssertType,
				"Use `T.let` to specify the type of constants"); err != nil {
				err.Emit()
			}
		}
		return e.Type
	}
	return t.Types.Untyped()
}
