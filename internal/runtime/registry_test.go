package runtime

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func echoEntry() Entry {
	return Entry{
		Name:        "echo",
		Description: "Echo the provided text back.",
		Parameters: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"text": {Type: "string", Description: "Text to echo."},
			},
			Required: []string{"text"},
		},
		Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
			var in struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", err
			}
			return in.Text, nil
		},
	}
}

func TestRegisterAndResolve(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoEntry()))

	e, err := r.Resolve("echo")
	require.NoError(t, err)
	assert.Equal(t, "echo", e.Name)

	out, err := e.Handler(context.Background(), json.RawMessage(`{"text":"hi"}`))
	require.NoError(t, err)
	assert.Equal(t, "hi", out)
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoEntry()))

	err := r.Register(echoEntry())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateTool)
}

func TestRegisterInvalid(t *testing.T) {
	r := NewRegistry()

	e := echoEntry()
	e.Name = ""
	assert.Error(t, r.Register(e))

	e = echoEntry()
	e.Handler = nil
	assert.Error(t, r.Register(e))
}

func TestResolveUnknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Resolve("delete_row")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestSpecsSorted(t *testing.T) {
	r := NewRegistry()
	noop := func(ctx context.Context, args json.RawMessage) (string, error) { return "", nil }
	require.NoError(t, r.RegisterAll(
		Entry{Name: "zebra", Handler: noop},
		Entry{Name: "apple", Handler: noop},
		Entry{Name: "mango", Handler: noop},
	))

	specs := r.Specs()
	require.Len(t, specs, 3)
	assert.Equal(t, "apple", specs[0].Name)
	assert.Equal(t, "mango", specs[1].Name)
	assert.Equal(t, "zebra", specs[2].Name)
}
