package utils

import (
	"math/rand"
	"time"

	"github.com/cjsmocjsmo/streamserverclient/src/log"
	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/dromara/carbon/v2"
	"github.com/elastic/go-sysinfo"
)

const letterBytes = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

const (
	letterIdxBits = 6                    // 6 bits to represent a letter index
	letterIdxMask = 1<<letterIdxBits - 1 // All 1-bits, as many as letterIdxBits
	letterIdxMax  = 63 / letterIdxBits   // # of letter indices fitting in 63 bits
)

func RandStringBytesMaskImpr(n int) string {
	b := make([]byte, n)
	// A rand.Int63() generates 63 random bits, enough for letterIdxMax letters!
	for i, cache, remain := n-1, rand.Int63(), letterIdxMax; i >= 0; {
		if remain == 0 {
			cache, remain = rand.Int63(), letterIdxMax
		}
		if idx := int(cache & letterIdxMask); idx < len(letterBytes) {
			b[i] = letterBytes[idx]
			i--
		}
		cache >>= letterIdxBits
		remain--
	}

	return string(b)
}

// FormatTimestamp renders t as YYYY-MM-DD HH:MM:SS in the location of t.
func FormatTimestamp(t time.Time) string {
	return carbon.CreateFromStdTime(t).ToDateTimeString()
}

// GetSystemInfo collects host information for the system endpoint.
func GetSystemInfo() (models.System, error) {
	var system models.System
	host, err := sysinfo.Host()
	if err != nil {
		log.Log.Error("utils.main.GetSystemInfo(): " + err.Error())
		return system, err
	}

	info := host.Info()
	system.Hostname = info.Hostname
	system.Architecture = info.Architecture
	system.KernelVersion = info.KernelVersion
	system.MACs = info.MACs
	system.IPs = info.IPs
	if !info.BootTime.IsZero() {
		system.BootTime = uint64(info.BootTime.Unix())
	}
	if info.OS != nil {
		system.Version = info.OS.Version
		system.Release = info.OS.Name
	}

	memory, err := host.Memory()
	if err == nil {
		system.TotalMemory = memory.Total
		system.UsedMemory = memory.Used
		system.FreeMemory = memory.Available
	}
	return system, nil
}
