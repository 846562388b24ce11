package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusPending, false},
		{StatusRejected, StatusConfirmed, false},
		{StatusConfirmed, StatusRejected, false},
		{StatusConfirmed, StatusPending, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestIsKnownStatus(t *testing.T) {
	assert.True(t, IsKnownStatus(StatusPending))
	assert.True(t, IsKnownStatus(StatusConfirmed))
	assert.True(t, IsKnownStatus(StatusRejected))
	assert.False(t, IsKnownStatus("cancelled"))
	assert.False(t, IsKnownStatus(""))
}

func TestBookingClone(t *testing.T) {
	price := 1500.0
	orig := Booking{
		ID:          "1",
		Decorations: []Decoration{{ID: "d1", Name: "Balloons", Price: 500}},
		TotalPrice:  &price,
	}

	cp := orig.Clone()
	cp.Decorations[0].Name = "Flowers"
	*cp.TotalPrice = 1

	assert.Equal(t, "Balloons", orig.Decorations[0].Name)
	assert.Equal(t, 1500.0, *orig.TotalPrice)
}

func TestBookingInput_NewBooking(t *testing.T) {
	price := 200.0
	in := BookingInput{
		Name:          "Asha",
		Phone:         "9990001111",
		Type:          BookingTypeParty,
		Decorations:   []Decoration{{ID: "d1"}},
		TotalPrice:    &price,
		ContactMethod: ContactWhatsApp,
	}

	b := in.NewBooking()
	assert.Equal(t, "Asha", b.Name)
	assert.Equal(t, BookingTypeParty, b.Type)
	assert.Empty(t, b.ID)
	assert.Empty(t, b.Status)

	in.Decorations[0].ID = "changed"
	assert.Equal(t, "d1", b.Decorations[0].ID)
	assert.NotSame(t, in.TotalPrice, b.TotalPrice)
}

func TestMenuItemPatch_Apply(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	item := MenuItem{
		ID:          "3",
		Name:        "Royal Butter Chicken",
		Description: "Tender chicken",
		Price:       2200,
		Category:    "North Indian",
		Available:   true,
		Tags:        []string{"Spicy"},
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	before := item.Clone()

	price := int64(999)
	at := created.Add(time.Hour)
	MenuItemPatch{Price: &price}.Apply(&item, at)

	assert.Equal(t, int64(999), item.Price)
	assert.Equal(t, at, item.UpdatedAt)

	item.Price = before.Price
	item.UpdatedAt = before.UpdatedAt
	assert.Equal(t, before, item)
}

func TestMenuItemPatch_ApplyTagsCopied(t *testing.T) {
	tags := []string{"New"}
	item := MenuItem{}
	MenuItemPatch{Tags: &tags}.Apply(&item, time.Now())
	tags[0] = "changed"
	assert.Equal(t, []string{"New"}, item.Tags)
}
