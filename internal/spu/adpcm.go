package spu

// adpcmFilters holds the five SPU-ADPCM predictor filter coefficient
// pairs (positive/negative, Q6 fixed point), used by Voice.decodeSamples
// to reconstruct 16-bit PCM from the 4-bit compressed sound-RAM blocks.
// The first four pairs are the same as the CD-ROM's XA-ADPCM table
// (see internal/cdrom's adpcmFilters); the fifth is SPU-only. The original_source retrieval
// for this spec did not include the file defining it, so both packages
// carry their own copy of the published filter constants rather than a
// line-for-line port.
var adpcmFilters = [5][2]int32{
	{0, 0},
	{60, 0},
	{115, -52},
	{98, -55},
	{122, -60},
}
