package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aiSzzPL-retroio/cdimage/cdimage"
	"github.com/aiSzzPL-retroio/cdimage/cue"
	"github.com/aiSzzPL-retroio/cdimage/discpos"
	"github.com/aiSzzPL-retroio/cdimage/msf"
)

var (
	readMediaType string
	readRaw       bool
	readDump      string
)

var readCmd = &cobra.Command{
	Use:   "read FILE POSITION",
	Short: "Read one sector from the disc image",
	Long: `Reads the fully-formed 2352-byte sector at POSITION from a BIN/CUE disc
image (or a ZIP archive containing one) and dumps it.

POSITION is either a plain "mm:ss:ff" MSF in the program area, or a
disc position with an explicit "<" (lead-in) or "+" (program) prefix.`,
	Args:                  cobra.ExactArgs(2),
	DisableFlagsInUseLine: true,
	Run: func(cmd *cobra.Command, args []string) {
		filename := args[0]

		position, ok := discpos.FromString(args[1])
		if !ok {
			m, ok := msf.FromString(args[1])
			if !ok {
				fmt.Printf("Invalid disc position: '%s'\n", args[1])
				return
			}
			position = discpos.NewProgram(m)
		}

		var img cdimage.Image
		var err error

		switch imgType := mediaType(readMediaType, filename); imgType {
		case "cue":
			img, err = cue.New(filename)
		case "zip":
			img, err = cue.NewFromZip(filename)
		default:
			fmt.Printf("Unsupported media type: '%s'", imgType)
			return
		}

		if err != nil {
			fmt.Println("Image read error!")
			fmt.Println(err)
			os.Exit(1)
		}
		defer img.Close()

		sec, err := img.ReadSector(position)
		if err != nil {
			fmt.Println("Sector read error!")
			fmt.Println(err)
			os.Exit(1)
		}

		if !readRaw {
			if subheader, err := sec.Mode2XaSubheader(); err == nil {
				fmt.Printf("XA Mode 2 form: %d\n", int(subheader.Submode().Form())+1)
			}
		}

		var bytes []byte
		switch readDump {
		case "full":
			bytes = sec.Data2352()[:]
		case "payload":
			bytes, err = sec.Mode2XaPayload()
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
		case "subq":
			raw := sec.Q().ToRaw()
			bytes = raw[:]
		default:
			fmt.Printf("Unsupported dump type: '%s'\n", readDump)
			return
		}

		if readRaw {
			os.Stdout.Write(bytes)
		} else {
			hexdump(bytes)
		}
	},
}

func init() {
	readCmd.Flags().StringVarP(&readMediaType, "media", "m", "", `Media type, default: file extension`)
	readCmd.Flags().BoolVar(&readRaw, "raw", false, `Write the bytes to stdout unformatted`)
	readCmd.Flags().StringVar(&readDump, "dump", "full", `What to dump: full, payload or subq`)
	rootCmd.AddCommand(readCmd)
}

func hexdump(bytes []byte) {
	isPrint := func(b byte) bool {
		return b >= ' ' && b <= '~'
	}

	for pos := 0; pos < len(bytes); pos += 16 {
		end := pos + 16
		if end > len(bytes) {
			end = len(bytes)
		}
		row := bytes[pos:end]

		fmt.Printf("%08x ", pos)

		for i := 0; i < 16; i++ {
			if i%8 == 0 {
				fmt.Print(" ")
			}
			if i < len(row) {
				fmt.Printf("%02x ", row[i])
			} else {
				fmt.Print("   ")
			}
		}

		fmt.Print(" |")
		for _, b := range row {
			if isPrint(b) {
				fmt.Printf("%c", b)
			} else {
				fmt.Print(".")
			}
		}
		fmt.Println("|")
	}
}
