package records

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_BackfillsDefaults(t *testing.T) {
	got, err := Decode([]byte(`[{"client_id":"A1"},{"name":"Bob","client_id":"B2","lots":3}]`))
	require.NoError(t, err)

	want := []Record{
		{ClientID: "A1", Broker: DefaultBroker},
		{Name: "Bob", ClientID: "B2", Broker: DefaultBroker, Lots: 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Decode mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_CoercesBroker(t *testing.T) {
	got, err := Decode([]byte(`[
		{"client_id":"1","broker":" angel "},
		{"client_id":"2","broker":"ZERODHA"},
		{"client_id":"3","broker":null},
		{"client_id":"4","broker":7}
	]`))
	require.NoError(t, err)

	for _, r := range got {
		assert.Equal(t, "ANGEL", r.Broker, "client %s", r.ClientID)
	}
}

func TestDecode_LenientValues(t *testing.T) {
	got, err := Decode([]byte(`[{
		"name": null,
		"client_id": 1001,
		"mobile": 9876543210,
		"password": true,
		"lots": "5",
		"sl": -3,
		"target": 2.0,
		"active": true,
		"extra": {"nested": 1}
	},{
		"client_id": "x",
		"lots": 2.5,
		"sl": "abc",
		"target": [1],
		"active": "yes"
	},{
		"client_id": "y",
		"active": 0
	},{
		"client_id": "z",
		"active": "off"
	}]`))
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, Record{
		ClientID: "1001", Mobile: "9876543210", Password: "true",
		Broker: DefaultBroker, Lots: 5, SL: 0, Target: 2, Active: 1,
	}, got[0])
	assert.Equal(t, Record{ClientID: "x", Broker: DefaultBroker, Active: 1}, got[1])
	assert.Equal(t, 0, got[2].Active)
	assert.Equal(t, 0, got[3].Active)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ``},
		{"not json", `hello`},
		{"object", `{"client_id":"A1"}`},
		{"null", `null`},
		{"array of scalars", `[1, 2]`},
		{"mixed", `[{"client_id":"A1"}, "B2"]`},
		{"trailing data", `[] []`},
		{"truncated", `[{"client_id":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.in))
			require.Error(t, err)
		})
	}
}

func TestDecode_EmptyArray(t *testing.T) {
	got, err := Decode([]byte("[]\n"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEncode_Layout(t *testing.T) {
	got, err := Encode([]Record{{
		Name: "A & B <ops>", Broker: "ANGEL", ClientID: "C1", Lots: 2, Active: 1,
	}})
	require.NoError(t, err)

	want := `[
  {
    "name": "A & B <ops>",
    "broker": "ANGEL",
    "client_id": "C1",
    "mobile": "",
    "email": "",
    "password": "",
    "api_key": "",
    "api_secret": "",
    "totp_secret": "",
    "lots": 2,
    "sl": 0,
    "target": 0,
    "active": 1
  }
]
`
	assert.Equal(t, want, string(got))
}

func TestEncode_Empty(t *testing.T) {
	got, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(got))
}

func TestEncodeDecode_PreservesOrder(t *testing.T) {
	in := []Record{
		{ClientID: "Z", Broker: "ANGEL"},
		{ClientID: "A", Broker: "ANGEL", Active: 1},
		{ClientID: "M", Broker: "ANGEL", Target: 40},
	}

	body, err := Encode(in)
	require.NoError(t, err)

	out, err := Decode(body)
	require.NoError(t, err)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_CountersAboveMaxCount(t *testing.T) {
	got, err := Decode([]byte(`[{"client_id":"A1","lots":2147483647,"sl":2147483648,"target":3e10}]`))
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, MaxCount, got[0].Lots)
	assert.Equal(t, 0, got[0].SL)
	assert.Equal(t, 0, got[0].Target)
}
