package validation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registerForm struct {
	Username string `json:"username" binding:"required,max=150"`
	Password string `json:"password" binding:"required,pwd"`
}

func TestToDetails(t *testing.T) {
	Init()
	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)

	t.Run("field errors use json names and readable messages", func(t *testing.T) {
		err := v.Struct(registerForm{Password: "abc"})
		require.Error(t, err)

		details := ToDetails(err)
		assert.Equal(t, "is required", details["username"])
		assert.Equal(t, "must be at least 8 characters long", details["password"])
	})

	t.Run("valid struct produces no error", func(t *testing.T) {
		err := v.Struct(registerForm{Username: "alice", Password: "s3cretpass"})
		assert.NoError(t, err)
	})

	t.Run("json syntax errors collapse to a payload detail", func(t *testing.T) {
		var target map[string]any
		err := json.Unmarshal([]byte("{not json"), &target)
		require.Error(t, err)
		assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))
	})

	t.Run("nil and foreign errors", func(t *testing.T) {
		assert.Nil(t, ToDetails(nil))
		assert.Equal(t, map[string]string{"payload": "invalid payload"}, ToDetails(errors.New("boom")))
	})
}
