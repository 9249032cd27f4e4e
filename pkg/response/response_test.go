package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/fatflowers/patron/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeJSON(t *testing.T) {
	b, err := json.Marshal(OK(map[string]string{"publicOrderId": "x"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true,"data":{"publicOrderId":"x"}}`, string(b))

	b, err = json.Marshal(Error(CodeBadRequest))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":false,"error":"bad_request"}`, string(b))
}

func TestFromError(t *testing.T) {
	status, body := FromError(fmt.Errorf("submit: %w", apperror.Validation("email", "required")))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, CodeBadRequest, body.Error)

	status, body = FromError(errors.New("db down"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, CodeInternal, body.Error)
}
