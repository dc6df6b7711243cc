//go:build linux

package alsa

import (
	"errors"
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ListDevices returns all available ALSA audio capture devices.
func ListDevices() ([]Device, error) {
	var devices []Device

	for cardNum := 0; ; cardNum++ {
		ctlPath := fmt.Sprintf("/dev/snd/controlC%d", cardNum)
		ctlFd, err := unix.Open(ctlPath, unix.O_RDONLY|unix.O_CLOEXEC, 0)
		if err != nil {
			if os.IsNotExist(err) || errors.Is(err, unix.ENOENT) {
				break // No more cards
			}
			continue
		}

		cardInfo := sndCtlCardInfo{}
		if err := ioctl(ctlFd, sndrvCtlIoctlCardInfo, unsafe.Pointer(&cardInfo)); err != nil {
			unix.Close(ctlFd)
			continue
		}

		deviceNum := int32(-1)
		for {
			if err := ioctl(ctlFd, sndrvCtlIoctlPCMNextDevice, unsafe.Pointer(&deviceNum)); err != nil {
				break
			}
			if deviceNum < 0 {
				break
			}

			pcmInfo := sndPCMInfo{
				device:    uint32(deviceNum),
				subdevice: 0,
				stream:    StreamCapture,
			}
			if err := ioctl(ctlFd, sndrvCtlIoctlPCMInfo, unsafe.Pointer(&pcmInfo)); err != nil {
				continue // Device doesn't support capture
			}

			device := Device{
				CardNumber:   cardNum,
				CardID:       cstr(cardInfo.id[:]),
				CardName:     cstr(cardInfo.longname[:]),
				DeviceNumber: int(deviceNum),
				DeviceName:   cstr(pcmInfo.name[:]),
				ALSADevice:   FormatALSADevice(cardNum, int(deviceNum)),
			}

			if caps, err := queryCapabilities(cardNum, int(deviceNum)); err == nil {
				device.SupportedRates = caps.rates
				device.MinChannels = caps.minChannels
				device.MaxChannels = caps.maxChannels
				device.SupportedFormats = caps.formats
				device.MinBufferSize = caps.minBufferSize
				device.MaxBufferSize = caps.maxBufferSize
				device.MinPeriodSize = caps.minPeriodSize
				device.MaxPeriodSize = caps.maxPeriodSize
			}

			devices = append(devices, device)
		}

		unix.Close(ctlFd)
	}

	return devices, nil
}

type capabilities struct {
	rates         []int
	minChannels   int
	maxChannels   int
	formats       []string
	minBufferSize int
	maxBufferSize int
	minPeriodSize int
	maxPeriodSize int
}

func queryCapabilities(cardNum, devNum int) (*capabilities, error) {
	fd, err := unix.Open(pcmCapturePath(cardNum, devNum), unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	defer unix.Close(fd)

	hwparams := sndPCMHwParams{}
	hwparams.init()
	hwparams.setMask(sndrvPCMHwParamAccess, sndrvPCMAccessRwInterleaved)

	if err := ioctl(fd, sndrvPCMIoctlHwRefine, unsafe.Pointer(&hwparams)); err != nil {
		return nil, err
	}

	caps := &capabilities{}

	minCh, maxCh := hwparams.getInterval(sndrvPCMHwParamChannels)
	caps.minChannels = int(minCh)
	caps.maxChannels = int(maxCh)

	minRate, maxRate := hwparams.getInterval(sndrvPCMHwParamRate)
	for _, rate := range CommonSampleRates {
		if uint32(rate) >= minRate && uint32(rate) <= maxRate {
			caps.rates = append(caps.rates, rate)
		}
	}

	for _, format := range CommonFormats {
		if hwparams.checkMask(sndrvPCMHwParamFormat, uint32(format)) {
			caps.formats = append(caps.formats, FormatName(format))
		}
	}

	minBuf, maxBuf := hwparams.getInterval(sndrvPCMHwParamBufferSize)
	caps.minBufferSize = int(minBuf)
	caps.maxBufferSize = int(maxBuf)

	minPer, maxPer := hwparams.getInterval(sndrvPCMHwParamPeriodSize)
	caps.minPeriodSize = int(minPer)
	caps.maxPeriodSize = int(maxPer)

	return caps, nil
}

// ParseALSADevice splits a "hw:CARD,DEVICE" string into its numbers.
// A bare "hw:CARD" selects device 0.
func ParseALSADevice(alsaDevice string) (cardNum, devNum int, err error) {
	if n, scanErr := fmt.Sscanf(alsaDevice, "hw:%d,%d", &cardNum, &devNum); scanErr == nil && n == 2 {
		return cardNum, devNum, nil
	}
	if n, scanErr := fmt.Sscanf(alsaDevice, "hw:%d", &cardNum); scanErr == nil && n == 1 {
		return cardNum, 0, nil
	}
	return 0, 0, fmt.Errorf("unsupported ALSA device %q: expected hw:CARD,DEVICE", alsaDevice)
}

func pcmCapturePath(cardNum, devNum int) string {
	return fmt.Sprintf("/dev/snd/pcmC%dD%dc", cardNum, devNum)
}
