package training

import (
	"testing"

	"github.com/google/uuid"
)

func TestDeterministicID_Stable(t *testing.T) {
	content := "SELECT customer_id, SUM(amount) FROM orders GROUP BY customer_id"

	first := DeterministicID(content)
	second := DeterministicID(content)

	if first != second {
		t.Errorf("same content produced different ids: %q vs %q", first, second)
	}
}

func TestDeterministicID_DistinctContent(t *testing.T) {
	a := DeterministicID("CREATE TABLE orders (id INT)")
	b := DeterministicID("CREATE TABLE orders (id BIGINT)")

	if a == b {
		t.Errorf("distinct content collided on id %q", a)
	}
}

func TestDeterministicID_ValidUUID(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "normal content", content: "some documentation text"},
		{name: "empty string", content: ""},
		{name: "unicode content", content: "訂單資料表"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := DeterministicID(tt.content)

			parsed, err := uuid.Parse(id)
			if err != nil {
				t.Fatalf("DeterministicID(%q) = %q, not a valid UUID: %v", tt.content, id, err)
			}
			if parsed.Version() != 5 {
				t.Errorf("expected version 5 UUID, got version %d", parsed.Version())
			}
		})
	}
}
