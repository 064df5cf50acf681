package cmd

import (
	"context"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload FILE",
	Short: "Upload a file",
	Long: `Upload a file into a folder.

The content is hashed while streaming; if identical content was uploaded
before, the stored bytes are reused and only a new entry is created.
Pass "-" to read from stdin, in which case --name is required.`,
	Example: `% depot upload ./map.png --parent b5c1e4a2-93f1-43b3-826e-cf6a5bd00001
% tar c data | depot upload - --parent b5c1e4a2-93f1-43b3-826e-cf6a5bd00001 --name data.tar`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var (
			rdr  io.Reader
			name = depotFlags.upload.Name
		)
		if args[0] == "-" {
			if name == "" {
				wrapFatalln("--name is required when uploading from stdin", nil)
				return
			}
			rdr = os.Stdin
		} else {
			f, err := os.Open(args[0])
			if err != nil {
				wrapFatalln("open source file", err)
				return
			}
			defer f.Close()
			rdr = f
			if name == "" {
				name = filepath.Base(args[0])
			}
		}

		mimeType := depotFlags.upload.MimeType
		if mimeType == "" {
			mimeType = mime.TypeByExtension(filepath.Ext(name))
		}

		engine, closer, err := config.mkEngine()
		if err != nil {
			wrapFatalln("initialize depot", err)
			return
		}
		defer func() { _ = closer() }()

		entry, err := engine.Ingest(context.Background(), rdr, name, mimeType, depotFlags.upload.Parent)
		if err != nil {
			fatalOnErr("upload", err)
			return
		}
		printEntryLine(entry)
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().StringVar(&depotFlags.upload.Parent,
		"parent", "", "key of the destination folder")
	uploadCmd.Flags().StringVar(&depotFlags.upload.Name,
		"name", "", "entry name (defaults to the source file name)")
	uploadCmd.Flags().StringVar(&depotFlags.upload.MimeType,
		"mime-type", "", "mime type (defaults to a guess from the name)")
	_ = uploadCmd.MarkFlagRequired("parent")
}
