package raster

// Pyramid operations relate adjacent resolution levels by plain 2x
// decimation and 2x2 block duplication. No filtering is applied in
// either direction: the coarse level only needs to be topologically
// faithful, and the fine seed is immediately refined by relaxation.

// Downsample returns a new raster holding every second row and column of
// src, starting at index 0. An odd dimension N maps to (N+1)/2.
func Downsample(src *Raster) *Raster {
	outW := (src.Width + 1) / 2
	outH := (src.Height + 1) / 2
	out := New(outW, outH)
	for row := 0; row < outH; row++ {
		srcBase := (row * 2) * src.Width
		dstBase := row * outW
		for col := 0; col < outW; col++ {
			out.Data[dstBase+col] = src.Data[srcBase+col*2]
		}
	}
	return out
}

// Upsample duplicates each cell of coarse into a 2x2 block of the
// caller-owned out buffer. When out has an odd row count the final row
// has no duplicate partner and receives only the even-row assignment;
// odd column counts are handled symmetrically. out must already have the
// shape whose 2x decimation is coarse.
func Upsample(coarse, out *Raster) error {
	if (out.Width+1)/2 != coarse.Width || (out.Height+1)/2 != coarse.Height {
		return shapeError(coarse, out)
	}
	for row := 0; row < coarse.Height; row++ {
		evenRow := row * 2
		oddRow := evenRow + 1
		srcBase := row * coarse.Width
		evenBase := evenRow * out.Width
		for col := 0; col < coarse.Width; col++ {
			v := coarse.Data[srcBase+col]
			evenCol := col * 2
			oddCol := evenCol + 1
			out.Data[evenBase+evenCol] = v
			if oddCol < out.Width {
				out.Data[evenBase+oddCol] = v
			}
			if oddRow < out.Height {
				oddBase := oddRow * out.Width
				out.Data[oddBase+evenCol] = v
				if oddCol < out.Width {
					out.Data[oddBase+oddCol] = v
				}
			}
		}
	}
	return nil
}
