package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quakestream/quakestream/internal/domain"
)

const iscFixture = `<?xml version="1.0" encoding="UTF-8"?>
<q:quakeml xmlns:q="http://quakeml.org/xmlns/quakeml/1.2" xmlns="http://quakeml.org/xmlns/bed/1.2">
  <eventParameters publicID="smi:isc/eventParameters">
    <event publicID="smi:isc/origid=600001;evid=12345">
      <origin publicID="smi:isc/origin/1">
        <time><value>2024-03-01T08:15:30.5Z</value></time>
        <latitude><value>-1.65</value></latitude>
        <longitude><value>29.22</value></longitude>
        <depth><value>15000</value></depth>
        <evaluationMode>manual</evaluationMode>
        <description>
          <text>Lake Kivu Region</text>
          <type>Flinn-Engdahl region</type>
        </description>
      </origin>
      <magnitude publicID="smi:isc/mag/1">
        <mag><value>4.8</value></mag>
        <type>mb</type>
      </magnitude>
      <magnitude publicID="smi:isc/mag/2">
        <mag><value>5.1</value></mag>
        <type>Mw</type>
      </magnitude>
      <magnitude publicID="smi:isc/mag/3">
        <mag><value>4.5</value></mag>
        <type>Ms</type>
      </magnitude>
    </event>
  </eventParameters>
</q:quakeml>`

func TestQuakeMLParser_ISCNoPreferredMagnitude(t *testing.T) {
	p := QuakeMLParser{DefaultSource: domain.SourceISC}
	events := p.Parse([]byte(iscFixture), time.Now())
	require.Len(t, events, 1)

	e := events[0]
	assert.Equal(t, "isc:12345", e.EventUID)
	assert.Equal(t, 5.1, e.MagnitudeValue)
	assert.Equal(t, "mw", e.MagnitudeType)
	assert.Equal(t, 15.0, e.DepthKM)
	assert.Equal(t, domain.StatusReviewed, e.Status)
	assert.Equal(t, "Lake Kivu Region", e.Place)
}

const ipgpFixture = `<?xml version="1.0" encoding="UTF-8"?>
<q:quakeml xmlns:q="http://quakeml.org/xmlns/quakeml/1.2" xmlns="http://quakeml.org/xmlns/bed/1.2">
  <eventParameters publicID="smi:ipgp/eventParameters">
    <event publicID="smi:ipgp/events/9988">
      <preferredOriginID>smi:ipgp/origin/B</preferredOriginID>
      <preferredMagnitudeID>smi:ipgp/mag/B</preferredMagnitudeID>
      <origin publicID="smi:ipgp/origin/A">
        <time><value>2024-05-02T03:00:00Z</value></time>
        <latitude><value>16.0</value></latitude>
        <longitude><value>-61.7</value></longitude>
        <depth><value>10000</value></depth>
      </origin>
      <origin publicID="smi:ipgp/origin/B">
        <time><value>2024-05-02T03:00:05Z</value></time>
        <latitude><value>16.05</value></latitude>
        <longitude><value>-61.75</value></longitude>
        <depth><value>12000</value></depth>
      </origin>
      <magnitude publicID="smi:ipgp/mag/A">
        <mag><value>4.0</value></mag>
        <type>Md</type>
      </magnitude>
      <magnitude publicID="smi:ipgp/mag/B">
        <mag><value>3.2</value></mag>
        <type>ML</type>
      </magnitude>
    </event>
  </eventParameters>
</q:quakeml>`

func TestQuakeMLParser_IPGPRespectsPreferredIDs(t *testing.T) {
	p := QuakeMLParser{DefaultSource: domain.SourceIPGP}
	events := p.Parse([]byte(ipgpFixture), time.Now())
	require.Len(t, events, 1)

	e := events[0]
	assert.Equal(t, 3.2, e.MagnitudeValue)
	assert.Equal(t, "ml", e.MagnitudeType)
	assert.Equal(t, 16.05, e.Latitude)
	assert.Equal(t, -61.75, e.Longitude)
}

func TestExtractEventID(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"smi:isc/origid=1;evid=600123", "600123"},
		{"smi:ipgp/events/9988", "9988"},
		{"urn:geonet#2024p012345", "2024p012345"},
		{"bare-id", "bare-id"},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, extractEventID(c.in))
	}
}

func TestParseQuakeMLTime(t *testing.T) {
	got, err := parseQuakeMLTime("2024-01-15T12:00:00.5Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 12, 0, 0, 500000000, time.UTC), got)

	got2, err := parseQuakeMLTime("2024-01-15T12:00:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC), got2)
}

func TestQuakeMLParser_NoNamespaceFallback(t *testing.T) {
	noNS := `<?xml version="1.0"?>
<quakeml>
  <eventParameters>
    <event publicID="evt-1">
      <origin publicID="org-1">
        <time><value>2024-02-01T00:00:00Z</value></time>
        <latitude><value>10.0</value></latitude>
        <longitude><value>20.0</value></longitude>
      </origin>
      <magnitude publicID="mag-1">
        <mag><value>5.5</value></mag>
        <type>mb</type>
      </magnitude>
    </event>
  </eventParameters>
</quakeml>`

	p := QuakeMLParser{DefaultSource: domain.SourceGeonet}
	events := p.Parse([]byte(noNS), time.Now())
	require.Len(t, events, 1)
	assert.Equal(t, "geonet:evt-1", events[0].EventUID)
}

func TestQuakeMLParser_MalformedPayloadYieldsEmptySequence(t *testing.T) {
	p := QuakeMLParser{DefaultSource: domain.SourceISC}
	assert.Empty(t, p.Parse([]byte("not xml at all"), time.Now()))
}
