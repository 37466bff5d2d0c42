package basestation

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"adsbtrack/internal/adsb"
	"adsbtrack/internal/tracker"
)

// BaseStation message types
const (
	BaseStationAIR = "AIR" // New Aircraft
	BaseStationSTA = "STA" // Status Change
	BaseStationMSG = "MSG" // Transmission
)

// BaseStation transmission types
const (
	TransmissionES_ID_CAT   = 1 // Extended Squitter Aircraft ID and Category
	TransmissionES_AIRBORNE = 3 // Extended Squitter Airborne Position
	TransmissionES_VELOCITY = 4 // Extended Squitter Airborne Velocity
)

// StatusRemoved is the STA status of an aircraft no longer tracked
const StatusRemoved = "RM"

const (
	dateLayout = "2006/01/02"
	timeLayout = "15:04:05.000"
)

// Output provides the writer that lines are appended to. logging.LogRotator implements it.
type Output interface {
	GetWriter() (io.Writer, error)
}

type streamOutput struct {
	w io.Writer
}

func (o streamOutput) GetWriter() (io.Writer, error) {
	return o.w, nil
}

// NewStreamOutput returns an Output that always writes to w
func NewStreamOutput(w io.Writer) Output {
	return streamOutput{w: w}
}

// BaseStationMessage represents a BaseStation format message
type BaseStationMessage struct {
	MessageType      string
	TransmissionType int
	SessionID        int
	AircraftID       int
	HexIdent         string
	FlightID         int
	DateGenerated    time.Time
	TimeGenerated    time.Time
	DateLogged       time.Time
	TimeLogged       time.Time
	Callsign         string
	Altitude         string
	GroundSpeed      string
	Track            string
	Latitude         string
	Longitude        string
	VerticalRate     string
	Squawk           string
	Alert            string
	Emergency        string
	SPI              string
	IsOnGround       string
}

// Writer writes decoded messages in BaseStation format. Message timestamps, which count
// nanoseconds from the start of the stream, are converted to wall clock time from epoch.
type Writer struct {
	out       Output
	logger    *logrus.Logger
	epoch     time.Time
	now       func() time.Time
	sessionID int

	mu          sync.Mutex
	aircraftIDs map[adsb.IcaoAddress]int
	nextID      int
	lines       uint64
}

// NewWriter creates a new BaseStation writer
func NewWriter(out Output, epoch time.Time, logger *logrus.Logger) *Writer {
	return &Writer{
		out:         out,
		logger:      logger,
		epoch:       epoch,
		now:         time.Now,
		sessionID:   1,
		aircraftIDs: make(map[adsb.IcaoAddress]int),
		nextID:      1,
	}
}

// WriteMessage writes msg in BaseStation format. aircraft is the tracked state after msg
// was folded into it and moved reports whether msg updated its position; only then does a
// position line carry coordinates. The first message of an aircraft is preceded by an AIR line.
func (w *Writer) WriteMessage(msg adsb.Message, aircraft tracker.Aircraft, moved bool) error {
	if msg == nil {
		return fmt.Errorf("message cannot be nil")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	id, known := w.aircraftIDs[msg.ICAO()]
	if !known {
		id = w.nextID
		w.nextID++
		w.aircraftIDs[msg.ICAO()] = id
	}

	generated := w.epoch.Add(time.Duration(msg.Timestamp()))
	logged := w.now()

	var lines []string
	if !known {
		air := w.newMessage(BaseStationAIR, id, msg.ICAO(), generated, logged)
		lines = append(lines, formatCSV(air))
	}

	baseMsg := w.newMessage(BaseStationMSG, id, msg.ICAO(), generated, logged)
	switch m := msg.(type) {
	case *adsb.Identification:
		baseMsg.TransmissionType = TransmissionES_ID_CAT
		baseMsg.Callsign = m.CallSign.String()

	case *adsb.Position:
		baseMsg.TransmissionType = TransmissionES_AIRBORNE
		baseMsg.Altitude = strconv.Itoa(int(math.Round(m.AltitudeM / adsb.Foot)))
		if moved && aircraft.Position != nil {
			ll := aircraft.Position.LatLng()
			baseMsg.Latitude = fmt.Sprintf("%.5f", ll.Lat.Degrees())
			baseMsg.Longitude = fmt.Sprintf("%.5f", ll.Lng.Degrees())
		}
		baseMsg.IsOnGround = "0"

	case *adsb.Velocity:
		baseMsg.TransmissionType = TransmissionES_VELOCITY
		baseMsg.GroundSpeed = strconv.Itoa(int(math.Round(m.SpeedMps / adsb.Knot)))
		baseMsg.Track = fmt.Sprintf("%.1f", m.TrackOrHeadingRad/adsb.Degree)
		baseMsg.IsOnGround = "0"

	default:
		return fmt.Errorf("unsupported message type %T", msg)
	}
	lines = append(lines, formatCSV(baseMsg))

	return w.write(lines)
}

// WriteRemoved writes the STA line telling that addr is no longer tracked
func (w *Writer) WriteRemoved(addr adsb.IcaoAddress, lastTimestampNs int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	id, known := w.aircraftIDs[addr]
	if !known {
		return nil
	}
	delete(w.aircraftIDs, addr)

	sta := w.newMessage(BaseStationSTA, id, addr, w.epoch.Add(time.Duration(lastTimestampNs)), w.now())
	// The status takes the place of the call sign
	sta.Callsign = StatusRemoved

	return w.write([]string{formatCSV(sta)})
}

// Lines returns the number of lines written so far
func (w *Writer) Lines() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lines
}

func (w *Writer) newMessage(kind string, id int, addr adsb.IcaoAddress, generated, logged time.Time) *BaseStationMessage {
	return &BaseStationMessage{
		MessageType:   kind,
		SessionID:     w.sessionID,
		AircraftID:    id,
		HexIdent:      addr.String(),
		FlightID:      id,
		DateGenerated: generated,
		TimeGenerated: generated,
		DateLogged:    logged,
		TimeLogged:    logged,
	}
}

func (w *Writer) write(lines []string) error {
	writer, err := w.out.GetWriter()
	if err != nil {
		return fmt.Errorf("failed to get log writer: %w", err)
	}

	for _, line := range lines {
		if _, err := writer.Write([]byte(line + "\n")); err != nil {
			return fmt.Errorf("failed to write to log: %w", err)
		}
		w.lines++
	}

	w.logger.WithField("lines", len(lines)).Trace("Wrote BaseStation lines")
	return nil
}

// formatCSV formats a BaseStation message as CSV. Transmission fields are only
// present on MSG lines.
func formatCSV(msg *BaseStationMessage) string {
	transmission := ""
	if msg.MessageType == BaseStationMSG {
		transmission = strconv.Itoa(msg.TransmissionType)
	}

	fields := []string{
		msg.MessageType,
		transmission,
		strconv.Itoa(msg.SessionID),
		strconv.Itoa(msg.AircraftID),
		msg.HexIdent,
		strconv.Itoa(msg.FlightID),
		msg.DateGenerated.Format(dateLayout),
		msg.TimeGenerated.Format(timeLayout),
		msg.DateLogged.Format(dateLayout),
		msg.TimeLogged.Format(timeLayout),
	}
	if msg.MessageType == BaseStationAIR {
		return strings.Join(fields, ",")
	}

	fields = append(fields,
		msg.Callsign,
		msg.Altitude,
		msg.GroundSpeed,
		msg.Track,
		msg.Latitude,
		msg.Longitude,
		msg.VerticalRate,
		msg.Squawk,
		msg.Alert,
		msg.Emergency,
		msg.SPI,
		msg.IsOnGround,
	)

	return strings.Join(fields, ",")
}
