package humastar

import (
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSignals(t *testing.T) {
	s, err := ParseSignals([]byte(`{"maintext":"hà nội","zoom":14,"directions":true}`))
	require.NoError(t, err)

	assert.Equal(t, "hà nội", s.String("maintext"))
	assert.Equal(t, "", s.String("zoom"))
	assert.Equal(t, "", s.String("directions"))
	assert.Equal(t, "", s.String("missing"))
}

func TestParseSignalsEmptyBody(t *testing.T) {
	s, err := ParseSignals(nil)
	require.NoError(t, err)
	assert.Empty(t, s)

	s, err = ParseSignals([]byte("  \n"))
	require.NoError(t, err)
	assert.Empty(t, s)
}

func TestMustParse(t *testing.T) {
	in := &SignalsInput{RawBody: []byte(`{broken`)}
	_, err := in.MustParse()
	require.Error(t, err)

	var se huma.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.GetStatus())
}
