package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

func isImageFile(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

func newEnrollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enroll <name> <image>",
		Short: "Enroll the face in an image under a name",
		Long: `Enroll the first face found in the image under name.
Enrolling an existing name replaces its stored face.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}

			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			enrollment, err := rt.Service.Enroll(commandContext(cmd), args[0], img)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Face registered for today! Name: %s\n", enrollment.Identity)
			if enrollment.Replaced {
				fmt.Fprintln(out, "(replaced previous face)")
			}
			fmt.Fprintf(out, "Total faces: %d\n", enrollment.TotalFaces)
			return nil
		},
	}
}

func newEnrollDirCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enroll-dir <folder>",
		Short: "Enroll every image in a folder, named after the file",
		Long: `Enroll each image in folder under its file name without extension,
so alice.jpg is enrolled as "alice". Images without a detectable face are
reported and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: runEnrollDir,
	}
	cmd.Flags().BoolP("recursive", "r", false, "Search for images recursively in subdirectories")
	return cmd
}

func runEnrollDir(cmd *cobra.Command, args []string) error {
	recursive, _ := cmd.Flags().GetBool("recursive")

	files, err := collectImages(args[0], recursive)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(files) == 0 {
		fmt.Fprintln(out, "No image files found.")
		return nil
	}

	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription("Enrolling"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("faces"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	ctx := commandContext(cmd)
	var failures []string
	enrolled := 0
	for _, path := range files {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

		img, err := os.ReadFile(path)
		if err == nil {
			_, err = rt.Service.Enroll(ctx, name, img)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", path, err))
		} else {
			enrolled++
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	for _, f := range failures {
		fmt.Fprintf(out, "Failed: %s\n", f)
	}
	fmt.Fprintf(out, "Enrolled %d of %d image(s), %d face(s) stored\n", enrolled, len(files), rt.Store.Count())

	if enrolled == 0 {
		return fmt.Errorf("no faces were enrolled")
	}
	return nil
}

func collectImages(folder string, recursive bool) ([]string, error) {
	info, err := os.Stat(folder)
	if err != nil {
		return nil, fmt.Errorf("cannot access folder %s: %w", folder, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", folder)
	}

	var files []string
	if recursive {
		err := filepath.WalkDir(folder, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isImageFile(d.Name()) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("cannot walk folder %s: %w", folder, err)
		}
		return files, nil
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("cannot read folder %s: %w", folder, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && isImageFile(entry.Name()) {
			files = append(files, filepath.Join(folder, entry.Name()))
		}
	}
	return files, nil
}

func newRecognizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recognize <image>",
		Short: "Recognize the face in an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}

			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			result, err := rt.Service.Recognize(commandContext(cmd), img)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !result.Matched {
				fmt.Fprintln(out, "Face not recognized for today.")
				return nil
			}
			fmt.Fprintf(out, "Face recognized. Welcome back %s\n", result.Identity)
			fmt.Fprintf(out, "Distance: %.4f (threshold %.2f)\n", result.Distance, result.Threshold)
			return nil
		},
	}
}

func newCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of enrolled faces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			fmt.Fprintln(cmd.OutOrStdout(), rt.Service.Count())
			return nil
		},
	}
}

func newClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every enrolled face",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				return fmt.Errorf("refusing to clear the face database without --yes")
			}

			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			removed := rt.Service.Count()
			if err := rt.Service.ClearAll(commandContext(cmd)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d face(s)\n", removed)
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "Confirm removal")
	return cmd
}
