package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/inodb/vibe-guidescan/internal/query"
)

// WriteJSON writes a batch response as indented JSON.
func WriteJSON(w io.Writer, resp *query.Response) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	return nil
}
