// Command sffsutil inspects and manipulates a raw SFFS image file --
// the flat, encrypted NAND blob the engine in package sffs works
// against -- without needing a running emulator around it.
package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/leoetlino/dolphin/sffs"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "sffsutil:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: sffsutil <format|stat|fsck|export|import|title> ...")
	}
	cmd, args := args[0], args[1:]
	switch cmd {
	case "format":
		return runFormat(args)
	case "stat":
		return runStat(args)
	case "fsck":
		return runFsck(args)
	case "export":
		return runExport(args)
	case "import":
		return runImport(args)
	case "title":
		return runTitle(args)
	default:
		return fmt.Errorf("unknown subcommand %q", cmd)
	}
}

// sharedFlags holds the four flags every subcommand takes
// (--image/--aes-key/--hmac-key/--verbose), factored out so each subcommand's
// FlagSet only declares what is unique to it.
type sharedFlags struct {
	image   string
	aesKey  string
	hmacKey string
	verbose bool
}

func (s *sharedFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&s.image, "image", "", "path to the raw NAND image")
	fs.StringVar(&s.aesKey, "aes-key", "00000000000000000000000000000000", "hex AES-128 content key (16 bytes)")
	fs.StringVar(&s.hmacKey, "hmac-key", "00000000000000000000000000000000", "hex HMAC key")
	fs.BoolVarP(&s.verbose, "verbose", "v", false, "enable debug logging")
}

func (s *sharedFlags) openEngine(readOnly bool) (*sffs.Engine, *os.File, error) {
	if s.image == "" {
		return nil, nil, fmt.Errorf("--image is required")
	}

	level := slog.LevelWarn
	if s.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	flag := os.O_RDWR
	if readOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(s.image, flag, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("opening image: %w", err)
	}
	if !readOnly {
		if err := lockImage(f); err != nil {
			f.Close()
			return nil, nil, err
		}
	}

	keys, err := s.keyStore()
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	return sffs.New(f, keys, logger), f, nil
}

func (s *sharedFlags) keyStore() (*sffs.StaticKeyStore, error) {
	aes, err := decodeKey(s.aesKey, 16)
	if err != nil {
		return nil, fmt.Errorf("--aes-key: %w", err)
	}
	hmacKey, err := decodeKey(s.hmacKey, 0)
	if err != nil {
		return nil, fmt.Errorf("--hmac-key: %w", err)
	}
	var aesArr [16]byte
	copy(aesArr[:], aes)
	return sffs.NewStaticKeyStore(aesArr, hmacKey)
}

func decodeKey(s string, wantLen int) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if wantLen != 0 && len(b) != wantLen {
		return nil, fmt.Errorf("want %d bytes, got %d", wantLen, len(b))
	}
	return b, nil
}

func closeImage(e *sffs.Engine, f *os.File, readOnly bool) {
	if !readOnly {
		unlockImage(f)
	}
	f.Close()
}

func runFormat(args []string) error {
	var shared sharedFlags
	var uid uint32
	fs := pflag.NewFlagSet("format", pflag.ExitOnError)
	shared.register(fs)
	fs.Uint32Var(&uid, "uid", 0, "caller UID for the format request (only 0 is permitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, f, err := shared.openEngine(false)
	if err != nil {
		return err
	}
	defer closeImage(e, f, false)

	return e.Format(uid)
}

func runStat(args []string) error {
	var shared sharedFlags
	var path string
	fs := pflag.NewFlagSet("stat", pflag.ExitOnError)
	shared.register(fs)
	fs.StringVar(&path, "path", "", "report per-directory stats for this path instead of whole-image stats")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, f, err := shared.openEngine(true)
	if err != nil {
		return err
	}
	defer closeImage(e, f, true)

	if path != "" {
		stats, err := e.GetDirectoryStats(path)
		if err != nil {
			return err
		}
		return writeDirectoryReport(os.Stdout, path, stats)
	}

	stats, err := e.GetNandStats()
	if err != nil {
		return err
	}
	return writeNandReport(os.Stdout, stats)
}

func runFsck(args []string) error {
	var shared sharedFlags
	fs := pflag.NewFlagSet("fsck", pflag.ExitOnError)
	shared.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, f, err := shared.openEngine(true)
	if err != nil {
		return err
	}
	defer closeImage(e, f, true)

	if sb := e.GetSuperblock(); sb == nil {
		fmt.Fprintln(os.Stdout, "no superblock copy verified; image has no usable filesystem")
		os.Exit(2)
	}

	stats, err := e.GetNandStats()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "superblock OK: %d used clusters, %d bad, %d used inodes\n",
		stats.UsedClusters, stats.BadClusters, stats.UsedInodes)
	if stats.BadClusters > 0 {
		fmt.Fprintf(os.Stdout, "warning: %d clusters marked bad\n", stats.BadClusters)
	}
	return nil
}

func runExport(args []string) error {
	var shared sharedFlags
	var src, dst string
	fs := pflag.NewFlagSet("export", pflag.ExitOnError)
	shared.register(fs)
	fs.StringVar(&src, "src", "", "path inside the image")
	fs.StringVar(&dst, "dst", "", "destination path on the host")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if src == "" || dst == "" {
		return fmt.Errorf("--src and --dst are required")
	}

	e, f, err := shared.openEngine(true)
	if err != nil {
		return err
	}
	defer closeImage(e, f, true)

	fd, err := e.OpenFile(0, 0, src, sffs.ModeRead)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer e.Close(fd)

	st, err := e.Stat(fd)
	if err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	buf := make([]byte, 32*1024)
	var remaining = st.Size
	for remaining > 0 {
		chunk := uint32(len(buf))
		if chunk > remaining {
			chunk = remaining
		}
		n, err := e.Read(fd, buf[:chunk])
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			return err
		}
		remaining -= uint32(n)
	}
	return nil
}

func runImport(args []string) error {
	var shared sharedFlags
	var src, dst string
	var uid uint32
	var gid uint16
	fs := pflag.NewFlagSet("import", pflag.ExitOnError)
	shared.register(fs)
	fs.StringVar(&src, "src", "", "source path on the host")
	fs.StringVar(&dst, "dst", "", "destination path inside the image")
	fs.Uint32Var(&uid, "uid", 0, "owning UID of the new file")
	fs.Uint16Var(&gid, "gid", 0, "owning GID of the new file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if src == "" || dst == "" {
		return fmt.Errorf("--src and --dst are required")
	}

	e, f, err := shared.openEngine(false)
	if err != nil {
		return err
	}
	defer closeImage(e, f, false)

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	modes := sffs.Modes{Owner: sffs.ModeRW, Group: sffs.ModeRead, Other: sffs.ModeRead}
	if err := e.CreateFile(uid, gid, dst, 0, modes); err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}

	fd, err := e.OpenFile(uid, gid, dst, sffs.ModeRW)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dst, err)
	}
	defer e.Close(fd)

	buf := make([]byte, 32*1024)
	for {
		n, rerr := in.Read(buf)
		if n > 0 {
			if _, werr := e.Write(fd, buf[:n]); werr != nil {
				return werr
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return rerr
		}
	}
	return nil
}

func runTitle(args []string) error {
	var shared sharedFlags
	var path string
	var offset, length int64
	fs := pflag.NewFlagSet("title", pflag.ExitOnError)
	shared.register(fs)
	fs.StringVar(&path, "path", "", "path inside the image holding a banner/title record")
	fs.Int64Var(&offset, "offset", 0, "byte offset of the UTF-16 title field within the file")
	fs.Int64Var(&length, "length", 84, "byte length of the UTF-16 title field (Wii banners use 42 code units)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("--path is required")
	}

	e, f, err := shared.openEngine(true)
	if err != nil {
		return err
	}
	defer closeImage(e, f, true)

	fd, err := e.OpenFile(0, 0, path, sffs.ModeRead)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer e.Close(fd)

	if _, err := e.Seek(fd, offset, sffs.SeekSet); err != nil {
		return fmt.Errorf("seeking to title field: %w", err)
	}
	raw := make([]byte, length)
	if _, err := e.Read(fd, raw); err != nil {
		return fmt.Errorf("reading title field: %w", err)
	}

	title, err := decodeTitle(raw)
	if err != nil {
		return err
	}
	fmt.Println(title)
	return nil
}
