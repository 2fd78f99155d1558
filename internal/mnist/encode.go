package mnist

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// EncodeImages writes images in IDX image format. Every image must hold
// rows*cols pixels.
func EncodeImages(w io.Writer, rows, cols int, images [][]byte) error {
	bw := bufio.NewWriter(w)
	hdr := imageHeader{
		Magic: ImageMagic,
		Count: uint32(len(images)),
		Rows:  uint32(rows),
		Cols:  uint32(cols),
	}
	if err := binary.Write(bw, binary.BigEndian, hdr); err != nil {
		return err
	}
	for i, img := range images {
		if len(img) != rows*cols {
			return fmt.Errorf("mnist: image %d has %d pixels, want %d", i, len(img), rows*cols)
		}
		if _, err := bw.Write(img); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// EncodeLabels writes labels in IDX label format. Values are written as-is,
// including bytes outside [0, 9].
func EncodeLabels(w io.Writer, labels []byte) error {
	bw := bufio.NewWriter(w)
	hdr := labelHeader{
		Magic: LabelMagic,
		Count: uint32(len(labels)),
	}
	if err := binary.Write(bw, binary.BigEndian, hdr); err != nil {
		return err
	}
	if _, err := bw.Write(labels); err != nil {
		return err
	}
	return bw.Flush()
}
