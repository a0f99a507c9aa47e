package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Ввод/вывод и загрузка программ
	IOInfo           Code = 4000
	IOLoadFileError  Code = 4001
	IOFixtureInvalid Code = 4002

	// Резолвер
	ResInfo                            Code = 5000
	ResDynamicConstant                 Code = 5001
	ResStubConstant                    Code = 5002
	ResDynamicSuperclass               Code = 5003
	ResCircularDependency              Code = 5004
	ResRedefinitionOfParents           Code = 5005
	ResInvalidMethodSignature          Code = 5006
	ResInvalidDeclareVariables         Code = 5007
	ResDuplicateVariableDeclaration    Code = 5008
	ResInvalidCast                     Code = 5009
	ResUndeclaredVariable              Code = 5010
	ResConstantAssertType              Code = 5011
	ResAbstractMethodWithBody          Code = 5012
	ResParentTypeNotDeclared           Code = 5013
	ResNotATypeVariable                Code = 5014
	ResParentVarianceMismatch          Code = 5015
	ResTypeMembersInWrongOrder         Code = 5016
	ResVariantTypeMemberInClass        Code = 5017
	ResInvalidMixinDeclaration         Code = 5018
	ResEnumerableParentTypeNotDeclared Code = 5019
	ResInvalidRequiredAncestor         Code = 5020

	// Наблюдаемость
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:                        "Unknown error",
		IOInfo:                             "I/O information",
		IOLoadFileError:                    "I/O load file error",
		IOFixtureInvalid:                   "Malformed program description",
		ResInfo:                            "Resolver information",
		ResDynamicConstant:                 "Dynamic constant reference",
		ResStubConstant:                    "Stubbing out unknown constant",
		ResDynamicSuperclass:               "Superclass or mixin is not statically resolvable",
		ResCircularDependency:              "Circular ancestor dependency",
		ResRedefinitionOfParents:           "Class parents redefined",
		ResInvalidMethodSignature:          "Malformed method signature",
		ResInvalidDeclareVariables:         "Malformed variable declaration",
		ResDuplicateVariableDeclaration:    "Variable redeclared",
		ResInvalidCast:                     "Malformed type cast",
		ResUndeclaredVariable:              "Use of undeclared variable",
		ResConstantAssertType:              "Constant typed with a non-let cast",
		ResAbstractMethodWithBody:          "Abstract method with a body",
		ResParentTypeNotDeclared:           "Parent type member not re-declared",
		ResNotATypeVariable:                "Parent type member shadowed by a non type member",
		ResParentVarianceMismatch:          "Type member variance differs from parent",
		ResTypeMembersInWrongOrder:         "Type members repeated in wrong order",
		ResVariantTypeMemberInClass:        "Variant type member in class",
		ResInvalidMixinDeclaration:         "Malformed mixin declaration",
		ResEnumerableParentTypeNotDeclared: "Enumerable type member not re-declared",
		ResInvalidRequiredAncestor:         "Malformed required ancestor",
		ObsInfo:                            "Observability information",
		ObsTimings:                         "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("RES%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
