package queue

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) NotifyOrderPaid(ev OrderPaidEvent) error {
	return m.Called(ev).Error(0)
}

func sampleEvent() OrderPaidEvent {
	return OrderPaidEvent{
		OrderID: 7, UserID: 3, Email: "ana@example.com", FullName: "Ana Pop",
		ShowID: 11, ProgramID: 4, MovieName: "Arrival", TheaterName: "Odeon",
		ScreenName: "Hall 1", Day: "2024-05-02", Hour: "18:00",
		Seats: []string{"1,1", "1,2"}, TicketCodes: []string{"a", "b"},
		Total: "20.00", PaidAt: "2024-05-01T09:00:00Z",
	}
}

func TestHandleMessageWritesLineAndNotifies(t *testing.T) {
	dir := t.TempDir()
	n := new(mockNotifier)
	ev := sampleEvent()
	n.On("NotifyOrderPaid", ev).Return(nil).Twice()
	log, _ := test.NewNullLogger()
	c := NewConsumer("", "", dir, n, log)

	body, err := json.Marshal(ev)
	require.NoError(t, err)
	require.NoError(t, c.handleMessage(body))
	require.NoError(t, c.handleMessage(body))

	data, err := os.ReadFile(filepath.Join(dir, "orders.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "order=7")
	assert.Contains(t, lines[0], "seats=1,1,1,2")
	assert.Contains(t, lines[0], "total=20.00")
	n.AssertNumberOfCalls(t, "NotifyOrderPaid", 2)
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	log, _ := test.NewNullLogger()
	c := NewConsumer("", "", t.TempDir(), nil, log)
	assert.Error(t, c.handleMessage([]byte("{not json")))
	assert.Error(t, c.handleMessage([]byte(`{"user_id":1}`)))
}

func TestHandleMessageSkipsMailWithoutAddress(t *testing.T) {
	n := new(mockNotifier)
	log, _ := test.NewNullLogger()
	c := NewConsumer("", "", t.TempDir(), n, log)
	ev := sampleEvent()
	ev.Email = ""
	body, _ := json.Marshal(ev)
	require.NoError(t, c.handleMessage(body))
	n.AssertNotCalled(t, "NotifyOrderPaid", mock.Anything)
}

func TestHandleMessageNotifyFailureIsLogged(t *testing.T) {
	n := new(mockNotifier)
	n.On("NotifyOrderPaid", mock.Anything).Return(errors.New("smtp down"))
	log, hook := test.NewNullLogger()
	c := NewConsumer("", "", t.TempDir(), n, log)
	body, _ := json.Marshal(sampleEvent())

	require.NoError(t, c.handleMessage(body))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestNewConsumerDefaults(t *testing.T) {
	log, _ := test.NewNullLogger()
	c := NewConsumer("amqp://x", "", "", nil, log)
	assert.Equal(t, OrderPaidQueue, c.queue)
	assert.Equal(t, "logs", c.logDir)
}
