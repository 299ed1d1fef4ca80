package segbot

// Observer receives change notifications. Notifications are delivered
// synchronously on the loop goroutine and only when a value changed.
type Observer interface {
	AngleChanged(val int)
	SpeedLeftChanged(val int)
	SpeedRightChanged(val int)
	SensorDistanceChanged(val int)
	VoltageChanged(val int)
	ErrorStringChanged(s string)
}

// StateObserver is optionally implemented by an Observer to learn
// about device changes.
type StateObserver interface {
	StateChanged(st State)
}

// State is the channel state.
type State struct {
	Device string `json:"device"`
	Open   bool   `json:"open"`
	Active bool   `json:"active"`
	Error  string `json:"error,omitempty"`
}

// ObserverFuncs adapts funcs to Observer. nil funcs are skipped.
type ObserverFuncs struct {
	OnAngle          func(int)
	OnSpeedLeft      func(int)
	OnSpeedRight     func(int)
	OnSensorDistance func(int)
	OnVoltage        func(int)
	OnErrorString    func(string)
	OnState          func(State)
}

// AngleChanged implements Observer.
func (f *ObserverFuncs) AngleChanged(val int) {
	if f.OnAngle != nil {
		f.OnAngle(val)
	}
}

// SpeedLeftChanged implements Observer.
func (f *ObserverFuncs) SpeedLeftChanged(val int) {
	if f.OnSpeedLeft != nil {
		f.OnSpeedLeft(val)
	}
}

// SpeedRightChanged implements Observer.
func (f *ObserverFuncs) SpeedRightChanged(val int) {
	if f.OnSpeedRight != nil {
		f.OnSpeedRight(val)
	}
}

// SensorDistanceChanged implements Observer.
func (f *ObserverFuncs) SensorDistanceChanged(val int) {
	if f.OnSensorDistance != nil {
		f.OnSensorDistance(val)
	}
}

// VoltageChanged implements Observer.
func (f *ObserverFuncs) VoltageChanged(val int) {
	if f.OnVoltage != nil {
		f.OnVoltage(val)
	}
}

// ErrorStringChanged implements Observer.
func (f *ObserverFuncs) ErrorStringChanged(s string) {
	if f.OnErrorString != nil {
		f.OnErrorString(s)
	}
}

// StateChanged implements StateObserver.
func (f *ObserverFuncs) StateChanged(st State) {
	if f.OnState != nil {
		f.OnState(st)
	}
}
