package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBEDWriter_WriteResponse(t *testing.T) {
	var buf bytes.Buffer
	w := NewBEDWriter(&buf)

	require.NoError(t, w.WriteResponse(testResponse()))
	require.NoError(t, w.Flush())

	assert.Equal(t, "track name=\"guideRNAs\"\n"+
		"chrI\t10\t33\tchrI:1-100\t0\t+\n"+
		"chrI\t40\t63\tchrI:1-100\t0\t-\n", buf.String())
}

func TestBEDWriter_EmptyResponse(t *testing.T) {
	resp := testResponse()
	resp.Queries["chrI:1-100"].Hits = nil

	var buf bytes.Buffer
	w := NewBEDWriter(&buf)
	require.NoError(t, w.WriteResponse(resp))
	require.NoError(t, w.Flush())
	assert.Equal(t, "track name=\"guideRNAs\"\n", buf.String())
}
