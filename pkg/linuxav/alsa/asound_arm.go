//go:build linux && arm

package alsa

import "unsafe"

// Compile-time struct size assertions for 32-bit ARM.
var (
	_ [376]byte = [unsafe.Sizeof(sndCtlCardInfo{})]byte{}
	_ [288]byte = [unsafe.Sizeof(sndPCMInfo{})]byte{}
	_ [604]byte = [unsafe.Sizeof(sndPCMHwParams{})]byte{}
	_ [12]byte  = [unsafe.Sizeof(sndXferi{})]byte{}
)

// IOCTL constants for 32-bit ARM.
// hw_params and xferi shrink because snd_pcm_uframes_t and pointers are 4 bytes.
const (
	sndrvCtlIoctlCardInfo      = 0x81785501
	sndrvCtlIoctlPCMNextDevice = 0x80045530
	sndrvCtlIoctlPCMInfo       = 0xc1205531

	sndrvPCMIoctlHwRefine    = 0xc25c4110
	sndrvPCMIoctlHwParams    = 0xc25c4111
	sndrvPCMIoctlPrepare     = 0x00004140
	sndrvPCMIoctlDrop        = 0x00004143
	sndrvPCMIoctlReadiFrames = 0x800c4151
)

type sndCtlCardInfo struct {
	card       int32
	_          [4]byte
	id         [16]byte
	driver     [16]byte
	name       [32]byte
	longname   [80]byte
	reserved   [16]byte
	mixername  [80]byte
	components [128]byte
}

type sndPCMInfo struct {
	device          uint32
	subdevice       uint32
	stream          int32
	card            int32
	id              [64]byte
	name            [80]byte
	subname         [32]byte
	devClass        int32
	devSubclass     int32
	subdevicesCount uint32
	subdevicesAvail uint32
	_               [16]byte
	reserved        [64]byte
}

// sndPCMHwParams is 604 bytes on 32-bit: fifo_size is 4 bytes.
type sndPCMHwParams struct {
	flags     uint32
	masks     [sndrvPCMHwParamLastMask - sndrvPCMHwParamFirstMask + 1]sndMask
	mres      [5]sndMask
	intervals [sndrvPCMHwParamLastInterval - sndrvPCMHwParamFirstInterval + 1]sndInterval
	ires      [9]sndInterval
	rmask     uint32
	cmask     uint32
	info      uint32
	msbits    uint32
	rateNum   uint32
	rateDen   uint32
	fifoSize  uint32
	reserved  [64]byte
}

type sndXferi struct {
	result int32
	buf    unsafe.Pointer
	frames uint32
}

func newXferi(buf unsafe.Pointer, frames int) sndXferi {
	return sndXferi{buf: buf, frames: uint32(frames)}
}
