package domain

import (
	"fmt"

	invdomain "github.com/voiceops/teamsadmin/internal/inventory_service/domain"
)

// GenerateSequential builds count line URIs from a prefix and a starting
// index, zero-padded to padWidth. Example: prefix "tel:+1425555",
// start 100, padWidth 4 yields tel:+14255550100, tel:+14255550101, ...
// Every generated URI is checked against the line URI rules; a prefix
// that produces invalid numbers fails as a whole.
func GenerateSequential(prefix string, start, count, padWidth int) ([]string, error) {
	if count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", count)
	}
	if start < 0 {
		return nil, fmt.Errorf("start index must not be negative, got %d", start)
	}
	if padWidth < 1 {
		padWidth = 1
	}

	uris := make([]string, 0, count)
	for i := 0; i < count; i++ {
		uri := fmt.Sprintf("%s%0*d", prefix, padWidth, start+i)
		if err := invdomain.ValidateLineURI(uri); err != nil {
			return nil, fmt.Errorf("generated number %q is not a valid line URI: %w", uri, err)
		}
		uris = append(uris, uri)
	}
	return uris, nil
}
