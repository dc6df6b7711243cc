//go:build linux && (amd64 || arm64)

package alsa

import "unsafe"

// Compile-time struct size assertions.
// These will cause build failures if struct sizes don't match kernel expectations.
var (
	_ [376]byte = [unsafe.Sizeof(sndCtlCardInfo{})]byte{}
	_ [288]byte = [unsafe.Sizeof(sndPCMInfo{})]byte{}
	_ [32]byte  = [unsafe.Sizeof(sndMask{})]byte{}
	_ [12]byte  = [unsafe.Sizeof(sndInterval{})]byte{}
	_ [608]byte = [unsafe.Sizeof(sndPCMHwParams{})]byte{}
	_ [24]byte  = [unsafe.Sizeof(sndXferi{})]byte{}
)

// IOCTL constants for 64-bit architectures.
const (
	// Control interface IOCTLs.
	sndrvCtlIoctlCardInfo      = 0x81785501
	sndrvCtlIoctlPCMNextDevice = 0x80045530
	sndrvCtlIoctlPCMInfo       = 0xc1205531

	// PCM IOCTLs.
	sndrvPCMIoctlHwRefine    = 0xc2604110
	sndrvPCMIoctlHwParams    = 0xc2604111
	sndrvPCMIoctlPrepare     = 0x00004140
	sndrvPCMIoctlDrop        = 0x00004143
	sndrvPCMIoctlReadiFrames = 0x80184151
)

// sndCtlCardInfo has size 376 bytes.
type sndCtlCardInfo struct {
	card       int32     // offset 0
	_          [4]byte   // padding
	id         [16]byte  // offset 8
	driver     [16]byte  // offset 24
	name       [32]byte  // offset 40
	longname   [80]byte  // offset 72
	reserved   [16]byte  // offset 152
	mixername  [80]byte  // offset 168
	components [128]byte // offset 248
}

// sndPCMInfo has size 288 bytes.
type sndPCMInfo struct {
	device          uint32   // offset 0
	subdevice       uint32   // offset 4
	stream          int32    // offset 8
	card            int32    // offset 12
	id              [64]byte // offset 16
	name            [80]byte // offset 80
	subname         [32]byte // offset 160
	devClass        int32    // offset 192
	devSubclass     int32    // offset 196
	subdevicesCount uint32   // offset 200
	subdevicesAvail uint32   // offset 204
	_               [16]byte // padding
	reserved        [64]byte // offset 224
}

// sndPCMHwParams has size 608 bytes.
type sndPCMHwParams struct {
	flags     uint32                                                                      // offset 0
	masks     [sndrvPCMHwParamLastMask - sndrvPCMHwParamFirstMask + 1]sndMask             // offset 4, size 96
	mres      [5]sndMask                                                                  // offset 100, size 160
	intervals [sndrvPCMHwParamLastInterval - sndrvPCMHwParamFirstInterval + 1]sndInterval // offset 260, size 144
	ires      [9]sndInterval                                                              // offset 404, size 108
	rmask     uint32                                                                      // offset 512
	cmask     uint32                                                                      // offset 516
	info      uint32                                                                      // offset 520
	msbits    uint32                                                                      // offset 524
	rateNum   uint32                                                                      // offset 528
	rateDen   uint32                                                                      // offset 532
	fifoSize  uint64                                                                      // offset 536 (snd_pcm_uframes_t)
	reserved  [64]byte                                                                    // offset 544
}

// sndXferi has size 24 bytes.
type sndXferi struct {
	result int64          // snd_pcm_sframes_t
	buf    unsafe.Pointer // void __user *
	frames uint64         // snd_pcm_uframes_t
}

func newXferi(buf unsafe.Pointer, frames int) sndXferi {
	return sndXferi{buf: buf, frames: uint64(frames)}
}
