package queries

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MaxSearchLimit     = 200
	DefaultSearchLimit = 50
	cursorVersionV1    = "v1"
)

// SearchKey is the keyset position of the last row of a page under the
// matching order: urgency rank desc, required date asc, created_at asc, id.
type SearchKey struct {
	UrgencyRank  int
	RequiredDate time.Time
	CreatedAt    time.Time
	ID           uuid.UUID
}

// Uses microsecond precision to align with PostgreSQL timestamp precision.
func EncodeSearchCursor(key SearchKey) string {
	payload := fmt.Sprintf("%s:%d:%d:%d:%s",
		cursorVersionV1,
		key.UrgencyRank,
		key.RequiredDate.UnixMicro(),
		key.CreatedAt.UnixMicro(),
		key.ID.String(),
	)
	return base64.URLEncoding.EncodeToString([]byte(payload))
}

func DecodeSearchCursor(cursor string) (SearchKey, error) {
	if cursor == "" {
		return SearchKey{}, fmt.Errorf("cursor cannot be empty")
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return SearchKey{}, fmt.Errorf("invalid cursor encoding: %w", err)
	}

	parts := strings.Split(string(decoded), ":")
	if len(parts) != 5 || parts[0] != cursorVersionV1 {
		return SearchKey{}, fmt.Errorf("invalid cursor format")
	}

	rank, err := strconv.Atoi(parts[1])
	if err != nil {
		return SearchKey{}, fmt.Errorf("invalid urgency rank: %w", err)
	}
	requiredMicros, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return SearchKey{}, fmt.Errorf("invalid required date: %w", err)
	}
	createdMicros, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return SearchKey{}, fmt.Errorf("invalid created at: %w", err)
	}
	id, err := uuid.Parse(parts[4])
	if err != nil {
		return SearchKey{}, fmt.Errorf("invalid UUID: %w", err)
	}

	return SearchKey{
		UrgencyRank:  rank,
		RequiredDate: time.UnixMicro(requiredMicros),
		CreatedAt:    time.UnixMicro(createdMicros),
		ID:           id,
	}, nil
}
