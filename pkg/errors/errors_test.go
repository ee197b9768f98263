// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Saucier Contributors

package errors_test

import (
	stderrors "errors"
	"net/http"
	"testing"

	saucierr "github.com/saucier-dev/saucier/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIncludesCodeAndFields(t *testing.T) {
	err := saucierr.New(
		saucierr.CodeSynthExhausted,
		"all synthesis attempts failed",
		saucierr.FieldVoice("en-IN-aarav"),
		saucierr.Field("attempts", 3),
	)

	require.Error(t, err)
	assert.Equal(t, saucierr.CodeSynthExhausted, saucierr.CodeOf(err))
	assert.True(t, saucierr.HasCode(err, saucierr.CodeSynthExhausted))

	fields := saucierr.FieldsOf(err)
	assert.Equal(t, "en-IN-aarav", fields["voice"])
	assert.Equal(t, 3, fields["attempts"])
}

func TestErrorfWrapsInnerError(t *testing.T) {
	inner := stderrors.New("connection refused")
	err := saucierr.Errorf(saucierr.CodeTranscribeUploadFailure, "uploading audio: %w", inner)
	require.Error(t, err)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, saucierr.CodeTranscribeUploadFailure, saucierr.CodeOf(err))
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, saucierr.Wrap(nil, saucierr.CodeHistoryPersistFailure, "persisting"))
	assert.NoError(t, saucierr.Wrapf(nil, saucierr.CodeHistoryPersistFailure, "persisting"))
	assert.NoError(t, saucierr.With(nil, saucierr.FieldSessionID("s1")))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, saucierr.Code(""), saucierr.CodeOf(stderrors.New("plain")))
	assert.Equal(t, saucierr.Code(""), saucierr.CodeOf(nil))
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", saucierr.New(saucierr.CodeServerEntityNotFound, "no such session"), http.StatusNotFound},
		{"invalid input", saucierr.New(saucierr.CodeServerRequestInvalid, "no text or audio provided"), http.StatusBadRequest},
		{"poll timeout", saucierr.New(saucierr.CodeTranscribePollTimeout, "gave up waiting"), http.StatusGatewayTimeout},
		{"upstream upload", saucierr.New(saucierr.CodeTranscribeUploadFailure, "upload failed"), http.StatusBadGateway},
		{"upstream job", saucierr.New(saucierr.CodeTranscribeJobFailed, "job errored"), http.StatusBadGateway},
		{"synth exhausted", saucierr.New(saucierr.CodeSynthExhausted, "all shapes failed"), http.StatusBadGateway},
		{"audio missing", saucierr.New(saucierr.CodeSynthAudioMissing, "no audioFile"), http.StatusInternalServerError},
		{"plain error", stderrors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, saucierr.HTTPStatus(tc.err))
		})
	}
}

func TestIsHelpers(t *testing.T) {
	assert.True(t, saucierr.IsUpstreamFailure(saucierr.New(saucierr.CodeSynthExhausted, "x")))
	assert.False(t, saucierr.IsUpstreamFailure(saucierr.New(saucierr.CodeSynthAudioMissing, "x")))
	assert.True(t, saucierr.IsInvalidInput(saucierr.New(saucierr.CodeConfigValidateInvalidValue, "x")))
	assert.True(t, saucierr.IsNotFound(saucierr.New(saucierr.CodeSecretNotFound, "x")))
	assert.True(t, saucierr.IsTimeout(saucierr.New(saucierr.CodeTranscribePollTimeout, "x")))
}
