package utils

const (
	// DefaultLoadAddr is used when the command is not given a destination
	// and the environment has no loadaddr.
	DefaultLoadAddr uint64 = 0x82000000

	DefaultRAMBase uint64 = 0x80000000
	DefaultRAMSize uint64 = 512 << 20

	DefaultEnvFile = ".bootfetch.env.yaml"
	LogFile        = ".bootfetch.log"
	ToolUserAgent  = "bootfetch/1.0"

	// DefaultReadSize bounds a single body read, and so a single fragment.
	DefaultReadSize = 32 * 1024
)
