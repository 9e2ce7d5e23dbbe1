package alarm

import "context"

// Recorder is a test double that records notifications, stored alarms and
// forwarded alarms.
type Recorder struct {
	// Messages contains every Notify call in order.
	Messages []string

	// Alarms contains every alarm passed to Append or PublishAlarm.
	Alarms []Alarm

	// Err, if set, is returned by Append and PublishAlarm.
	Err error
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Notify records the message.
func (r *Recorder) Notify(message string) {
	r.Messages = append(r.Messages, message)
}

// Append records the alarm.
func (r *Recorder) Append(_ context.Context, a Alarm) error {
	if r.Err != nil {
		return r.Err
	}
	r.Alarms = append(r.Alarms, a)
	return nil
}

// PublishAlarm records the alarm.
func (r *Recorder) PublishAlarm(a Alarm) error {
	if r.Err != nil {
		return r.Err
	}
	r.Alarms = append(r.Alarms, a)
	return nil
}

// Reset clears recorded state.
func (r *Recorder) Reset() {
	r.Messages = nil
	r.Alarms = nil
	r.Err = nil
}
