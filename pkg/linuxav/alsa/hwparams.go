//go:build linux

package alsa

// Hardware parameter indices (identical across architectures).
const (
	sndrvPCMHwParamAccess        = 0
	sndrvPCMHwParamFormat        = 1
	sndrvPCMHwParamSubformat     = 2
	sndrvPCMHwParamFirstMask     = 0
	sndrvPCMHwParamLastMask      = 2
	sndrvPCMHwParamSampleBits    = 8
	sndrvPCMHwParamFrameBits     = 9
	sndrvPCMHwParamChannels      = 10
	sndrvPCMHwParamRate          = 11
	sndrvPCMHwParamPeriodTime    = 12
	sndrvPCMHwParamPeriodSize    = 13
	sndrvPCMHwParamPeriodBytes   = 14
	sndrvPCMHwParamPeriods       = 15
	sndrvPCMHwParamBufferTime    = 16
	sndrvPCMHwParamBufferSize    = 17
	sndrvPCMHwParamBufferBytes   = 18
	sndrvPCMHwParamTickTime      = 19
	sndrvPCMHwParamFirstInterval = 8
	sndrvPCMHwParamLastInterval  = 19

	sndrvMaskMax = 256

	sndrvPCMAccessRwInterleaved = 3

	intervalInteger = 0b0100
)

// sndMask has size 32 bytes.
type sndMask struct {
	bits [(sndrvMaskMax + 31) / 32]uint32
}

// sndInterval has size 12 bytes. bit packs openmin, openmax, integer, empty.
type sndInterval struct {
	minVal uint32
	maxVal uint32
	bit    uint32
}

func (p *sndPCMHwParams) init() {
	for i := range p.masks {
		p.masks[i].bits[0] = 0xFFFFFFFF
		p.masks[i].bits[1] = 0xFFFFFFFF
	}
	for i := range p.intervals {
		p.intervals[i].maxVal = 0xFFFFFFFF
	}
	p.rmask = 0xFFFFFFFF
	p.cmask = 0
	p.info = 0xFFFFFFFF
}

func (p *sndPCMHwParams) setMask(param, val uint32) {
	p.masks[param].bits[0] = 0
	p.masks[param].bits[1] = 0
	p.masks[param].bits[val>>5] = 1 << (val & 0x1F)
}

func (p *sndPCMHwParams) checkMask(param, val uint32) bool {
	return p.masks[param].bits[val>>5]&(1<<(val&0x1F)) > 0
}

func (p *sndPCMHwParams) setInterval(param, val uint32) {
	idx := param - sndrvPCMHwParamFirstInterval
	p.intervals[idx].minVal = val
	p.intervals[idx].maxVal = val
	p.intervals[idx].bit = intervalInteger
}

func (p *sndPCMHwParams) getInterval(param uint32) (minVal, maxVal uint32) {
	idx := param - sndrvPCMHwParamFirstInterval
	return p.intervals[idx].minVal, p.intervals[idx].maxVal
}
