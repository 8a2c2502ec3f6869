// Package feed encodes playback snapshots for map and transit consumers
package feed

import (
	"fmt"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/randytsao24/routereplay/internal/location"
	"github.com/randytsao24/routereplay/internal/playback"
)

const gtfsRealtimeVersion = "2.0"

// VehiclePositions builds a full-dataset GTFS-Realtime feed holding one
// VehiclePosition for the replayed vehicle. A snapshot without route points
// yields a feed with a header and no entities.
func VehiclePositions(snap playback.Snapshot, vehicleID string, now time.Time) *gtfs.FeedMessage {
	msg := &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: proto.String(gtfsRealtimeVersion),
			Incrementality:      gtfs.FeedHeader_FULL_DATASET.Enum(),
			Timestamp:           proto.Uint64(uint64(now.Unix())),
		},
	}
	if snap.Total == 0 {
		return msg
	}

	position := &gtfs.Position{
		Latitude:  proto.Float32(float32(snap.Position.Lat)),
		Longitude: proto.Float32(float32(snap.Position.Lng)),
		Odometer:  proto.Float64(location.KilometersToMeters(snap.DistanceKm)),
	}
	if mps, ok := snap.Speed.MetersPerSecond(); ok {
		position.Speed = proto.Float32(float32(mps))
	}

	vehicle := &gtfs.VehiclePosition{
		Trip: &gtfs.TripDescriptor{
			TripId: proto.String(snap.SessionID),
		},
		Vehicle: &gtfs.VehicleDescriptor{
			Id:    proto.String(vehicleID),
			Label: proto.String(fmt.Sprintf("%s (%d/%d)", vehicleID, snap.Index+1, snap.Total)),
		},
		Position:            position,
		CurrentStopSequence: proto.Uint32(uint32(snap.Index)),
		CurrentStatus:       vehicleStatus(snap.State).Enum(),
	}
	if ts := snap.Position.Timestamp; !ts.IsZero() {
		vehicle.Timestamp = proto.Uint64(uint64(ts.Unix()))
	}

	msg.Entity = []*gtfs.FeedEntity{{
		Id:      proto.String(vehicleID),
		Vehicle: vehicle,
	}}
	return msg
}

// Marshal encodes the feed in protobuf wire format
func Marshal(msg *gtfs.FeedMessage) ([]byte, error) {
	data, err := proto.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encoding feed protobuf: %w", err)
	}
	return data, nil
}

// MarshalJSON renders the feed with the protobuf JSON mapping, for debugging
func MarshalJSON(msg *gtfs.FeedMessage) ([]byte, error) {
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encoding feed JSON: %w", err)
	}
	return data, nil
}

func vehicleStatus(s playback.State) gtfs.VehiclePosition_VehicleStopStatus {
	if s == playback.StatePlaying {
		return gtfs.VehiclePosition_IN_TRANSIT_TO
	}
	return gtfs.VehiclePosition_STOPPED_AT
}
