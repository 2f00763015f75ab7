package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayNumbers(t *testing.T) {
	tests := []struct {
		name string
		rows []TicketRow
		want string
	}{
		{
			"joins valid rows in order",
			[]TicketRow{
				{Times: "2", Actions: "10"},
				{Times: "1", Actions: "55"},
			},
			"10, 55",
		},
		{
			"skips rows without a sellable quantity",
			[]TicketRow{
				{Times: "2", Actions: "10"},
				{Times: "", Actions: "55"},
				{Times: "0", Actions: "77"},
			},
			"10",
		},
		{
			"skips rows without a number",
			[]TicketRow{
				{Times: "3", Actions: ""},
				{Times: "1", Actions: "42"},
			},
			"42",
		},
		{
			"duplicate numbers are kept per row, not consolidated",
			[]TicketRow{
				{Times: "2", Actions: "7"},
				{Times: "3", Actions: "7"},
			},
			"7, 7",
		},
		{"no rows", nil, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ticket := Ticket{Rows: tc.rows}
			assert.Equal(t, tc.want, ticket.DisplayNumbers())
		})
	}
}

func TestConsolidatedNumbers(t *testing.T) {
	ticket := Ticket{Rows: []TicketRow{
		{Times: "2", Actions: "7"},
		{Times: "3", Actions: "7"},
		{Times: "1", Actions: "12"},
		{Times: "0", Actions: "99"},
		{Times: "x", Actions: "50"},
	}}

	assert.Equal(t, map[string]int{"7": 5, "12": 1}, ticket.ConsolidatedNumbers())
	assert.Equal(t, 6, ticket.TotalTimes())
}
