package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

var _ Interceptor = (*FunctionInterceptor)(nil)
var _ SurfaceObserver = SurfaceObserverFunc(nil)

func TestDecision(t *testing.T) {
	target := MustRoute("/login", Presentational(noopPresent))

	assert.Equal(t, DecisionContinue, Decision{}.Kind())
	assert.Equal(t, DecisionRedirect, Redirect(target).Kind())
	assert.Same(t, target, Replace(target).Target())
	assert.Equal(t, "redirect(/login)", Redirect(target).String())

	err := errors.New("nope")
	d := Reject(err)
	assert.Equal(t, DecisionReject, d.Kind())
	assert.Equal(t, err, d.Err())
}

func TestFunctionInterceptor(t *testing.T) {
	var seen Params
	i := NewFunctionInterceptor("capture", func(_ context.Context, path string, params Params) Decision {
		seen = params
		if path == "/blocked" {
			return Reject(errors.New("blocked"))
		}
		return Continue()
	})

	assert.Equal(t, "capture", i.Name())
	assert.Equal(t, DecisionContinue, i.Intercept(context.Background(), "/ok", Params{"a": 1}).Kind())
	assert.Equal(t, Params{"a": 1}, seen)
	assert.Equal(t, DecisionReject, i.Intercept(context.Background(), "/blocked", nil).Kind())

	assert.Equal(t, DecisionContinue, NewFunctionInterceptor("nil", nil).Intercept(context.Background(), "/", nil).Kind())
}
