package receipt

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katmem/ticket-please/internal/model"
)

func TestTicketQR(t *testing.T) {
	data, err := TicketQR("3f2a6c1e-0000-4000-8000-000000000001", 128)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())

	data, err = TicketQR("x", 0)
	require.NoError(t, err)
	img, err = png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, DefaultQRSize, img.Bounds().Dx())
}

func TestOrderPDF(t *testing.T) {
	day := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	order := &model.Order{
		ID: 4, Total: decimal.NewFromInt(20), CreatedAt: day,
		Payment: &model.Payment{CardBrand: "visa", CardLast4: "4242", Reference: "ref"},
		Tickets: []model.TicketDetail{
			{Ticket: model.Ticket{Code: "a"}, MovieName: "Arrival", Position: "1,1",
				Program: model.Program{Day: day, Hour: 18 * time.Hour}, Price: decimal.NewFromInt(10)},
			{Ticket: model.Ticket{Code: "b"}, MovieName: "Arrival", Position: "1,2",
				Program: model.Program{Day: day, Hour: 18 * time.Hour}, Price: decimal.NewFromInt(10)},
		},
	}
	data, err := OrderPDF(order, "Ana Pop")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}
