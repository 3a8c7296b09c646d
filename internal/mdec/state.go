package mdec

// State is an exported snapshot of the MDEC, used by internal/system's
// save-state support.
type State struct {
	DataOut []uint8
	DataIn  []uint16

	QuantTables [2][64]uint8
	ScaleTable  [64]int16

	Blocks [3][64]int16

	ProcessingCommand bool
	Command           int

	CurrentBlock int

	WordsRemaining uint16
	LastWordRecvd  bool

	DMA0Enable bool
	DMA1Enable bool

	OutputDepth  uint32
	OutputSigned bool
	OutputBit15  bool

	SendColour bool
}

func copyU8Slice(src []uint8) []uint8 {
	out := make([]uint8, len(src))
	copy(out, src)
	return out
}

func copyU16Slice(src []uint16) []uint16 {
	out := make([]uint16, len(src))
	copy(out, src)
	return out
}

// State returns a snapshot of the MDEC.
func (m *Mdec) State() State {
	var s State
	s.DataOut = copyU8Slice(m.dataOut)
	s.DataIn = copyU16Slice(m.dataIn)
	s.QuantTables[0], s.QuantTables[1] = m.quantTables[0], m.quantTables[1]
	s.ScaleTable = m.scaleTable
	s.Blocks[0], s.Blocks[1], s.Blocks[2] = m.blocks[0], m.blocks[1], m.blocks[2]
	s.ProcessingCommand, s.Command = m.processingCommand, m.command
	s.CurrentBlock = m.currentBlock
	s.WordsRemaining, s.LastWordRecvd = m.wordsRemaining, m.lastWordRecvd
	s.DMA0Enable, s.DMA1Enable = m.dma0Enable, m.dma1Enable
	s.OutputDepth, s.OutputSigned, s.OutputBit15 = m.outputDepth, m.outputSigned, m.outputBit15
	s.SendColour = m.sendColour
	return s
}

// SetState restores a previously captured snapshot.
func (m *Mdec) SetState(s State) {
	m.dataOut = copyU8Slice(s.DataOut)
	m.dataIn = copyU16Slice(s.DataIn)
	m.quantTables[0], m.quantTables[1] = quantTable(s.QuantTables[0]), quantTable(s.QuantTables[1])
	m.scaleTable = s.ScaleTable
	m.blocks[0], m.blocks[1], m.blocks[2] = block(s.Blocks[0]), block(s.Blocks[1]), block(s.Blocks[2])
	m.processingCommand, m.command = s.ProcessingCommand, s.Command
	m.currentBlock = s.CurrentBlock
	m.wordsRemaining, m.lastWordRecvd = s.WordsRemaining, s.LastWordRecvd
	m.dma0Enable, m.dma1Enable = s.DMA0Enable, s.DMA1Enable
	m.outputDepth, m.outputSigned, m.outputBit15 = s.OutputDepth, s.OutputSigned, s.OutputBit15
	m.sendColour = s.SendColour
}
