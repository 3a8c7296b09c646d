package sio0

// State is an exported snapshot of the serial port, used by
// internal/system's save-state support. The attached MemoryCard is not
// part of the snapshot; its contents are persisted separately to its
// own backing file via Sync.
type State struct {
	ActiveDevice int

	Baudrate  int
	TicksLeft int64

	InTransfer    bool
	InAcknowledge bool

	InterruptRequest bool
	AckInputLevel    bool
	RxParityError    bool
	TxReady2         bool
	TxReady1         bool

	Mode    ModeState
	Control ControlState

	RxFIFO []byte
	TxFIFO []byte

	Controller ControllerState
}

// ModeState mirrors the decoded mode register.
type ModeState struct {
	ClkOutputPolarity bool
	ParityType        bool
	ParityEnable      bool
	BaudReloadFactor  int
	Raw               uint16
}

// ControlState mirrors the decoded control register.
type ControlState struct {
	Slot               bool
	AckInterruptEnable bool
	RxInterruptEnable  bool
	TxInterruptEnable  bool
	RxInterruptCount   int
	RxEnable           bool
	JoyNOutput         bool
	TxEnable           bool
}

// ControllerState is an exported snapshot of one gamepad, including
// its in-poll transfer cursor.
type ControllerState struct {
	TransferState int

	DigitalMode bool

	ButtonSelect, ButtonL3, ButtonR3, ButtonStart                 bool
	ButtonDpadUp, ButtonDpadRight, ButtonDpadDown, ButtonDpadLeft bool
	ButtonL2, ButtonR2, ButtonL1, ButtonR1                        bool
	ButtonTriangle, ButtonCircle, ButtonCross, ButtonSquare       bool

	AxisLX, AxisLY, AxisRX, AxisRY uint8
}

func fifoBytes(q byteFIFO) []byte {
	out := make([]byte, len(q.buf))
	copy(out, q.buf)
	return out
}

func bytesToFIFO(b []byte, capacity int) byteFIFO {
	q := byteFIFO{cap: capacity, buf: make([]byte, len(b))}
	copy(q.buf, b)
	return q
}

func controllerToState(c *Controller) ControllerState {
	return ControllerState{
		TransferState: c.state,
		DigitalMode:   c.DigitalMode,
		ButtonSelect:  c.ButtonSelect, ButtonL3: c.ButtonL3, ButtonR3: c.ButtonR3, ButtonStart: c.ButtonStart,
		ButtonDpadUp: c.ButtonDpadUp, ButtonDpadRight: c.ButtonDpadRight, ButtonDpadDown: c.ButtonDpadDown, ButtonDpadLeft: c.ButtonDpadLeft,
		ButtonL2: c.ButtonL2, ButtonR2: c.ButtonR2, ButtonL1: c.ButtonL1, ButtonR1: c.ButtonR1,
		ButtonTriangle: c.ButtonTriangle, ButtonCircle: c.ButtonCircle, ButtonCross: c.ButtonCross, ButtonSquare: c.ButtonSquare,
		AxisLX: c.AxisLX, AxisLY: c.AxisLY, AxisRX: c.AxisRX, AxisRY: c.AxisRY,
	}
}

func stateToController(s ControllerState) *Controller {
	return &Controller{
		state:        s.TransferState,
		DigitalMode:  s.DigitalMode,
		ButtonSelect: s.ButtonSelect, ButtonL3: s.ButtonL3, ButtonR3: s.ButtonR3, ButtonStart: s.ButtonStart,
		ButtonDpadUp: s.ButtonDpadUp, ButtonDpadRight: s.ButtonDpadRight, ButtonDpadDown: s.ButtonDpadDown, ButtonDpadLeft: s.ButtonDpadLeft,
		ButtonL2: s.ButtonL2, ButtonR2: s.ButtonR2, ButtonL1: s.ButtonL1, ButtonR1: s.ButtonR1,
		ButtonTriangle: s.ButtonTriangle, ButtonCircle: s.ButtonCircle, ButtonCross: s.ButtonCross, ButtonSquare: s.ButtonSquare,
		AxisLX: s.AxisLX, AxisLY: s.AxisLY, AxisRX: s.AxisRX, AxisRY: s.AxisRY,
	}
}

// State returns a snapshot of the serial port and its controller.
func (s *Sio0) State() State {
	var st State
	st.ActiveDevice = int(s.activeDevice)
	st.Baudrate, st.TicksLeft = s.baudrate, s.ticksLeft
	st.InTransfer, st.InAcknowledge = s.inTransfer, s.inAcknowledge
	st.InterruptRequest, st.AckInputLevel, st.RxParityError = s.interruptRequest, s.ackInputLevel, s.rxParityError
	st.TxReady2, st.TxReady1 = s.txReady2, s.txReady1
	st.Mode = ModeState{
		ClkOutputPolarity: s.mode.clkOutputPolarity, ParityType: s.mode.parityType,
		ParityEnable: s.mode.parityEnable, BaudReloadFactor: s.mode.baudReloadFactor, Raw: s.mode.raw,
	}
	st.Control = ControlState{
		Slot: s.control.slot, AckInterruptEnable: s.control.ackInterruptEnable,
		RxInterruptEnable: s.control.rxInterruptEnable, TxInterruptEnable: s.control.txInterruptEnable,
		RxInterruptCount: s.control.rxInterruptCount, RxEnable: s.control.rxEnable,
		JoyNOutput: s.control.joyNOutput, TxEnable: s.control.txEnable,
	}
	st.RxFIFO = fifoBytes(s.rxFIFO)
	st.TxFIFO = fifoBytes(s.txFIFO)
	st.Controller = controllerToState(s.controller)
	return st
}

// SetState restores a previously captured snapshot.
func (s *Sio0) SetState(st State) {
	s.activeDevice = device(st.ActiveDevice)
	s.baudrate, s.ticksLeft = st.Baudrate, st.TicksLeft
	s.inTransfer, s.inAcknowledge = st.InTransfer, st.InAcknowledge
	s.interruptRequest, s.ackInputLevel, s.rxParityError = st.InterruptRequest, st.AckInputLevel, st.RxParityError
	s.txReady2, s.txReady1 = st.TxReady2, st.TxReady1
	s.mode = mode{
		clkOutputPolarity: st.Mode.ClkOutputPolarity, parityType: st.Mode.ParityType,
		parityEnable: st.Mode.ParityEnable, baudReloadFactor: st.Mode.BaudReloadFactor, raw: st.Mode.Raw,
	}
	s.control = control{
		slot: st.Control.Slot, ackInterruptEnable: st.Control.AckInterruptEnable,
		rxInterruptEnable: st.Control.RxInterruptEnable, txInterruptEnable: st.Control.TxInterruptEnable,
		rxInterruptCount: st.Control.RxInterruptCount, rxEnable: st.Control.RxEnable,
		joyNOutput: st.Control.JoyNOutput, txEnable: st.Control.TxEnable,
	}
	s.rxFIFO = bytesToFIFO(st.RxFIFO, 8)
	s.txFIFO = bytesToFIFO(st.TxFIFO, 1)
	s.controller = stateToController(st.Controller)
}
