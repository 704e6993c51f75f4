package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<gesmes:Envelope xmlns:gesmes="http://www.gesmes.org/xml/2002-08-01" xmlns="http://www.ecb.int/vocabulary/2002-08-01/eurofxref">
  <gesmes:subject>Reference rates</gesmes:subject>
  <Cube>
    <Cube time="2025-06-02">
      <Cube currency="USD" rate="1.1021"/>
      <Cube currency="GBP" rate="0.8512"/>
      <Cube currency="JPY" rate="170.34"/>
      <Cube currency="BAD" rate="not-a-number"/>
    </Cube>
  </Cube>
</gesmes:Envelope>`

func TestParseFeed(t *testing.T) {
	// Act
	table, err := parseFeed([]byte(sampleFeed))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1.0, table["EUR"])
	assert.Equal(t, 1.1021, table["USD"])
	assert.Equal(t, 0.8512, table["GBP"])
	// Malformed entries are skipped, not fatal.
	_, present := table["BAD"]
	assert.False(t, present)
}

func TestParseFeed_Errors(t *testing.T) {
	_, err := parseFeed([]byte("not xml <<"))
	assert.Error(t, err)

	_, err = parseFeed([]byte(`<Envelope><Cube></Cube></Envelope>`))
	assert.ErrorContains(t, err, "no rate data")
}

func TestFetchRates_FromFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(sampleFeed))
	}))
	defer server.Close()
	client := NewECBClient(server.URL, nil)

	table, err := client.FetchRates(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1.1021, table["USD"])
}

func TestFetchRates_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()
	client := NewECBClient(server.URL, nil)

	_, err := client.FetchRates(context.Background())

	assert.ErrorContains(t, err, "status 502")
}

func TestFetchRates_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()
	client := NewECBClient(server.URL, nil)

	for i := 0; i < 3; i++ {
		_, err := client.FetchRates(context.Background())
		require.Error(t, err)
	}

	// The fourth call short-circuits without hitting the server.
	_, err := client.FetchRates(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}
