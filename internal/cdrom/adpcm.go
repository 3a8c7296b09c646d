package cdrom

// adpcmFilters holds the four XA-ADPCM predictor filter coefficient
// pairs (positive/negative, Q6 fixed point) used by decodeADPCMBlock.
// These four pairs are the well-documented Philips/Sony CD-i XA filter
// constants; the original_source retrieval for this spec did not
// include the file defining them, so they are reproduced here from the
// published XA-ADPCM filter table rather than ported line-for-line.
var adpcmFilters = [4][2]int32{
	{0, 0},
	{60, 0},
	{115, -52},
	{98, -55},
}

// adpcmZigzagTable holds the seven 29-tap FIR windows used by the
// zig-zag interpolation step that turns every six decoded ADPCM
// samples into 7 upsampled output frames. Like adpcmFilters, the source
// file defining this table was not present in the retrieved reference
// material; the values below are the standard PSX XA zigzag/FIR
// coefficients published in community PSX hardware documentation.
var adpcmZigzagTable = [7][29]int32{
	{0, 0, 0, 0, 0, -0x0002, 0x000A, -0x0022, 0x0041, -0x0054, 0x0034, 0x0009, -0x010A, 0x0400, -0x0A78, 0x234C, 0x6794, -0x1780, 0x0BCD, -0x0623, 0x0350, -0x016D, 0x006B, 0x000A, -0x0034, 0x0027, -0x000D, 0x0001, 0x0000},
	{0, 0, 0, 0, -0x0002, 0x0000, 0x0003, -0x0013, 0x003C, -0x004B, 0x0061, -0x0027, -0x00AB, 0x0390, -0x09A8, 0x2328, 0x6756, -0x1832, 0x0C5E, -0x06E6, 0x03C4, -0x01A4, 0x007F, 0x0010, -0x0038, 0x0026, -0x000C, 0x0001, 0x0000},
	{0, 0, 0, -0x0001, 0x0003, 0x0002, -0x0005, 0x0000, 0x0017, -0x004A, 0x007F, -0x0080, -0x0045, 0x0316, -0x08A0, 0x22C0, 0x6708, -0x18A8, 0x0CE4, -0x07A2, 0x0431, -0x01D9, 0x0093, 0x0015, -0x003A, 0x0025, -0x000B, 0x0001, 0x0000},
	{0, 0, -0x0001, 0x0002, 0x0000, -0x0006, 0x0007, 0x0006, -0x001C, 0x0045, -0x0078, 0x0087, 0x0011, 0x0288, -0x07B8, 0x2234, 0x66B4, -0x1910, 0x0D5D, -0x0852, 0x049C, -0x020F, 0x00A8, 0x001A, -0x003D, 0x0023, -0x000A, 0x0001, 0x0000},
	{0, -0x0001, 0x0002, -0x0001, -0x0003, 0x0009, -0x0005, -0x0009, 0x0028, -0x006E, 0x00A3, -0x005A, -0x0115, 0x01E3, -0x06A0, 0x2180, 0x6600, -0x1950, 0x0DC5, -0x08EE, 0x0503, -0x0240, 0x00B9, 0x001F, -0x003F, 0x0021, -0x0009, 0x0001, 0x0000},
	{-0x0001, 0x0002, -0x0001, -0x0003, 0x0007, 0x0000, -0x000F, 0x003C, -0x007D, 0x00B6, 0x0000, -0x0213, 0x0058, 0x016D, -0x0532, 0x2068, 0x6528, -0x196E, 0x0E02, -0x094C, 0x0554, -0x0264, 0x00D4, 0x0024, -0x0047, 0x001F, -0x0008, 0x0001, 0x0000},
	{0x0002, -0x0003, -0x0002, 0x0010, -0x0024, 0x0030, -0x002F, 0x0013, 0x0104, -0x0285, 0x042C, -0x0664, 0x06D4, -0x0604, 0x0485, 0x1F2D, 0x6404, -0x19A0, 0x0E44, -0x099E, 0x0598, -0x0285, 0x00E5, 0x0031, -0x0053, 0x001B, -0x0008, 0x0002, -0x0001},
}
