package cdrom

// State is an exported snapshot of the CD-ROM controller, used by
// internal/system's save-state support. The disc container itself is
// not part of the snapshot; the owning System reopens it from the
// configured disc path on restore.
type State struct {
	Idx index

	InterruptEnable uint8
	InterruptFlags  uint8

	Command    uint8
	HasCommand bool

	Playing, Seeking, Reading bool

	ParameterBuffer []byte
	ResponseBuffer  []byte
	DataBuffer      [0x930]byte
	DataBufferPtr   int

	WantData bool
	DataBusy bool

	SeekUnprocessed                   bool
	SeekMinute, SeekSecond, SeekSector byte

	FilterFile, FilterChannel byte

	SectorHeader    HeaderState
	SectorSubheader SubheaderState
	Sector          [0x930]byte

	AdpcmBuffers     [2][]int16
	AdpcmPrevSamples [2][2]int16

	ModeDoubleSpeed bool
	ModeADPCM       bool
	ModeSectorSize  bool
	ModeFilter      bool
	ModeReport      bool

	ControllerCounter int64
	ControllerPhase   controllerPhase

	ControllerInterruptFlags uint8
	ControllerCommand        uint8

	ControllerParameterBuffer []byte
	ControllerResponseBuffer  []byte

	DriveCounter  int64
	DriveMode     driveMode
	NextDriveMode driveMode

	DriveInterruptPending bool
	DrivePendingStat      uint8

	SecondResponseCounter int64
	SecondResponseMode    secondResponseMode

	DriveSeekMinute, DriveSeekSecond, DriveSeekSector byte

	LastSubQ SubchannelQState

	Sixstep int
	Ringbuf [2][0x20]int16
}

// HeaderState mirrors a decoded sector header.
type HeaderState struct {
	Minute, Second, Sector, Mode byte
}

// SubheaderState mirrors a decoded XA subheader.
type SubheaderState struct {
	File, Channel, Submode, Codinginfo byte
}

// SubchannelQState mirrors the last-read subchannel Q data.
type SubchannelQState struct {
	Track, Idx    byte
	MM, SS, FF    byte
	AMM, ASS, AFF byte
}

func queueBytes(q byteQueue) []byte {
	out := make([]byte, len(q.buf))
	copy(out, q.buf)
	return out
}

func bytesToQueue(b []byte) byteQueue {
	q := byteQueue{buf: make([]byte, len(b))}
	copy(q.buf, b)
	return q
}

func copyInt16Slice(s []int16) []int16 {
	out := make([]int16, len(s))
	copy(out, s)
	return out
}

// State returns a snapshot of the controller.
func (c *Cdrom) State() State {
	var s State
	s.Idx = c.idx
	s.InterruptEnable, s.InterruptFlags = c.interruptEnable, c.interruptFlags
	s.Command, s.HasCommand = c.command, c.hasCommand
	s.Playing, s.Seeking, s.Reading = c.playing, c.seeking, c.reading
	s.ParameterBuffer = queueBytes(c.parameterBuffer)
	s.ResponseBuffer = queueBytes(c.responseBuffer)
	s.DataBuffer = c.dataBuffer
	s.DataBufferPtr = c.dataBufferPtr
	s.WantData, s.DataBusy = c.wantData, c.dataBusy
	s.SeekUnprocessed = c.seekUnprocessed
	s.SeekMinute, s.SeekSecond, s.SeekSector = c.seekMinute, c.seekSecond, c.seekSector
	s.FilterFile, s.FilterChannel = c.filterFile, c.filterChannel
	s.SectorHeader = HeaderState{c.sectorHeader.minute, c.sectorHeader.second, c.sectorHeader.sector, c.sectorHeader.mode}
	s.SectorSubheader = SubheaderState{c.sectorSubheader.file, c.sectorSubheader.channel, c.sectorSubheader.submode, c.sectorSubheader.codinginfo}
	s.Sector = c.sector
	s.AdpcmBuffers[0] = copyInt16Slice(c.adpcmBuffers[0])
	s.AdpcmBuffers[1] = copyInt16Slice(c.adpcmBuffers[1])
	s.AdpcmPrevSamples = c.adpcmPrevSamples
	s.ModeDoubleSpeed, s.ModeADPCM, s.ModeSectorSize, s.ModeFilter, s.ModeReport =
		c.modeDoubleSpeed, c.modeADPCM, c.modeSectorSize, c.modeFilter, c.modeReport
	s.ControllerCounter, s.ControllerPhase = c.controllerCounter, c.controllerPhase
	s.ControllerInterruptFlags, s.ControllerCommand = c.controllerInterruptFlags, c.controllerCommand
	s.ControllerParameterBuffer = queueBytes(c.controllerParameterBuffer)
	s.ControllerResponseBuffer = queueBytes(c.controllerResponseBuffer)
	s.DriveCounter, s.DriveMode, s.NextDriveMode = c.driveCounter, c.driveMode, c.nextDriveMode
	s.DriveInterruptPending, s.DrivePendingStat = c.driveInterruptPending, c.drivePendingStat
	s.SecondResponseCounter, s.SecondResponseMode = c.secondResponseCounter, c.secondResponseMode
	s.DriveSeekMinute, s.DriveSeekSecond, s.DriveSeekSector = c.driveSeekMinute, c.driveSeekSecond, c.driveSeekSector
	q := c.lastSubQ
	s.LastSubQ = SubchannelQState{q.track, q.idx, q.mm, q.ss, q.ff, q.amm, q.ass, q.aff}
	s.Sixstep = c.sixstep
	s.Ringbuf = c.ringbuf
	return s
}

// SetState restores a previously captured snapshot.
func (c *Cdrom) SetState(s State) {
	c.idx = s.Idx
	c.interruptEnable, c.interruptFlags = s.InterruptEnable, s.InterruptFlags
	c.command, c.hasCommand = s.Command, s.HasCommand
	c.playing, c.seeking, c.reading = s.Playing, s.Seeking, s.Reading
	c.parameterBuffer = bytesToQueue(s.ParameterBuffer)
	c.responseBuffer = bytesToQueue(s.ResponseBuffer)
	c.dataBuffer = s.DataBuffer
	c.dataBufferPtr = s.DataBufferPtr
	c.wantData, c.dataBusy = s.WantData, s.DataBusy
	c.seekUnprocessed = s.SeekUnprocessed
	c.seekMinute, c.seekSecond, c.seekSector = s.SeekMinute, s.SeekSecond, s.SeekSector
	c.filterFile, c.filterChannel = s.FilterFile, s.FilterChannel
	c.sectorHeader = header{s.SectorHeader.Minute, s.SectorHeader.Second, s.SectorHeader.Sector, s.SectorHeader.Mode}
	c.sectorSubheader = subheader{s.SectorSubheader.File, s.SectorSubheader.Channel, s.SectorSubheader.Submode, s.SectorSubheader.Codinginfo}
	c.sector = s.Sector
	c.adpcmBuffers[0] = copyInt16Slice(s.AdpcmBuffers[0])
	c.adpcmBuffers[1] = copyInt16Slice(s.AdpcmBuffers[1])
	c.adpcmPrevSamples = s.AdpcmPrevSamples
	c.modeDoubleSpeed, c.modeADPCM, c.modeSectorSize, c.modeFilter, c.modeReport =
		s.ModeDoubleSpeed, s.ModeADPCM, s.ModeSectorSize, s.ModeFilter, s.ModeReport
	c.controllerCounter, c.controllerPhase = s.ControllerCounter, s.ControllerPhase
	c.controllerInterruptFlags, c.controllerCommand = s.ControllerInterruptFlags, s.ControllerCommand
	c.controllerParameterBuffer = bytesToQueue(s.ControllerParameterBuffer)
	c.controllerResponseBuffer = bytesToQueue(s.ControllerResponseBuffer)
	c.driveCounter, c.driveMode, c.nextDriveMode = s.DriveCounter, s.DriveMode, s.NextDriveMode
	c.driveInterruptPending, c.drivePendingStat = s.DriveInterruptPending, s.DrivePendingStat
	c.secondResponseCounter, c.secondResponseMode = s.SecondResponseCounter, s.SecondResponseMode
	c.driveSeekMinute, c.driveSeekSecond, c.driveSeekSector = s.DriveSeekMinute, s.DriveSeekSecond, s.DriveSeekSector
	q := s.LastSubQ
	c.lastSubQ = subchannelQ{q.Track, q.Idx, q.MM, q.SS, q.FF, q.AMM, q.ASS, q.AFF}
	c.sixstep = s.Sixstep
	c.ringbuf = s.Ringbuf
}
