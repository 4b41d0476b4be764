package core

import (
	"time"

	"github.com/google/uuid"
)

// ParamSource describes where self-test parameters came from.
type ParamSource int

const (
	ParamSourceGeneric ParamSource = iota
	ParamSourceDefaultOnly
	ParamSourceTestOnly
	ParamSourceTestAndDefault
)

func (s ParamSource) String() string {
	switch s {
	case ParamSourceTestAndDefault:
		return "test+default"
	case ParamSourceTestOnly:
		return "test"
	case ParamSourceDefaultOnly:
		return "default+generic"
	default:
		return "generic"
	}
}

// ParamSource reports which producers contribute to SelfTestParams.
func (r *RouteDefinition) ParamSource() ParamSource {
	hasDefault := r.DefaultParams != nil
	hasTest := r.TestParams != nil

	switch {
	case hasTest && hasDefault:
		return ParamSourceTestAndDefault
	case hasTest:
		return ParamSourceTestOnly
	case hasDefault:
		return ParamSourceDefaultOnly
	default:
		return ParamSourceGeneric
	}
}

// SelfTestParams builds the parameters used to exercise the route in an
// automated self-test. Defaults come first and test parameters override them.
// Routes without test parameters get a generic marker set that never
// overrides defaults. A kind marker is always added last.
func (r *RouteDefinition) SelfTestParams() Params {
	params := r.Defaults()

	if r.TestParams != nil {
		params = params.Merge(r.TestParams())
	} else {
		generic := Params{
			"test":      true,
			"source":    "automated_test",
			"timestamp": float64(time.Now().UnixNano()) / float64(time.Second),
			"testId":    uuid.NewString(),
		}
		params = generic.Merge(params)
	}

	if r.IsPresentational() {
		params["pageType"] = "test_page"
		params["navigationSource"] = "automated_test"
	} else {
		params["actionType"] = "test_action"
	}

	return params
}
