package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"assettracker/internal/config"
	"assettracker/internal/detection"
	"assettracker/internal/logger"
	"assettracker/internal/service/ai"
	"assettracker/internal/service/annotate"
	"assettracker/internal/service/codec"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true,
	".bmp": true, ".tif": true, ".tiff": true,
}

func main() {
	cfg := config.Load()

	flag.StringVar(&cfg.ModelPath, "model", cfg.ModelPath, "Path to the detection model")
	flag.StringVar(&cfg.LabelsPath, "labels", cfg.LabelsPath, "Dataset YAML or one-label-per-line file")
	flag.StringVar(&cfg.ModelFormat, "format", cfg.ModelFormat, "Model output format: yolo or ssd")
	imagesDir := flag.String("dir", "test/images", "Directory containing images to scan")
	outDir := flag.String("out", "runs/scan", "Directory for annotated copies")
	limit := flag.Int("limit", 5, "Scan at most this many images (0 for all)")
	conf := flag.Float64("conf", cfg.DefaultConfidence, "Confidence threshold")
	flag.Parse()

	if *conf < 0 || *conf > 1 {
		log.Fatalf("Confidence must be between 0 and 1, got %v", *conf)
	}

	files, err := listImages(*imagesDir, *limit)
	if err != nil {
		log.Fatalf("Failed to read images directory: %v", err)
	}
	if len(files) == 0 {
		fmt.Println("No images found to scan")
		return
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	models := ai.NewModelProvider(cfg, logger.NewWriter(io.Discard))
	defer models.Close()
	detector, err := models.Detector()
	if err != nil {
		log.Fatalf("Failed to load model: %v", err)
	}

	annotator, err := annotate.New(annotate.Options{
		LineWidth: cfg.AnnotationLineWidth,
		FontSize:  cfg.AnnotationFontSize,
	})
	if err != nil {
		log.Fatalf("Failed to prepare annotator: %v", err)
	}

	fmt.Printf("Scanning %d image(s) from %s at confidence %.2f\n", len(files), *imagesDir, *conf)

	scanned, failed := 0, 0
	for _, path := range files {
		summary, err := scanFile(context.Background(), detector, annotator, path, *outDir, *conf)
		if err != nil {
			log.Printf("⚠️  %s: %v", filepath.Base(path), err)
			failed++
			continue
		}
		fmt.Printf("\n%s\n", filepath.Base(path))
		fmt.Print(formatSummary(summary))
		scanned++
	}

	fmt.Printf("\n✅ Scanned %d image(s), annotated copies in %s\n", scanned, *outDir)
	if failed > 0 {
		fmt.Printf("⚠️  Failed on %d file(s)\n", failed)
		os.Exit(1)
	}
}

// listImages returns image files in dir sorted by name, at most limit of
// them when limit > 0.
func listImages(dir string, limit int) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)

	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

// scanFile detects, annotates and writes one image, returning its summary.
func scanFile(ctx context.Context, detector detection.Detector, annotator detection.Annotator, path, outDir string, conf float64) (detection.SummaryCounts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return detection.SummaryCounts{}, err
	}
	img, err := codec.Decode(data)
	if err != nil {
		return detection.SummaryCounts{}, err
	}

	result, err := detector.Detect(ctx, img, conf)
	if err != nil {
		return detection.SummaryCounts{}, err
	}
	annotated, err := annotator.Annotate(img, result)
	if err != nil {
		return detection.SummaryCounts{}, err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".jpg"
	out, err := os.Create(filepath.Join(outDir, name))
	if err != nil {
		return detection.SummaryCounts{}, err
	}
	defer out.Close()
	if err := codec.EncodeJPEG(out, annotated); err != nil {
		return detection.SummaryCounts{}, err
	}

	return detection.Summarize(result), nil
}

func formatSummary(s detection.SummaryCounts) string {
	if s.Empty() {
		return "   " + detection.NothingDetectedMessage + "\n"
	}
	var b strings.Builder
	for _, e := range s.Entries() {
		fmt.Fprintf(&b, "   - %s: %d\n", e.Label, e.Count)
	}
	return b.String()
}
