// Package griddata samples analytic surfaces into dense data matrices for
// benchmarking and testing manifold fits.
package griddata

import "gonum.org/v1/gonum/mat"

// Surface samples z = f(x, y) on an nx×ny grid spanning [x0,x1]×[y0,y1],
// endpoints included, and returns the samples as a 3×(nx·ny) matrix whose
// rows are the x, y, and z values. Columns vary x fastest. Both axis counts
// must be at least 2.
func Surface(f func(x, y float64) float64, nx, ny int, x0, x1, y0, y1 float64) *mat.Dense {
	k := nx * ny
	data := mat.NewDense(3, k, nil)
	dx := (x1 - x0) / float64(nx-1)
	dy := (y1 - y0) / float64(ny-1)
	for iy := 0; iy < ny; iy++ {
		y := y0 + float64(iy)*dy
		for ix := 0; ix < nx; ix++ {
			x := x0 + float64(ix)*dx
			j := iy*nx + ix
			data.Set(0, j, x)
			data.Set(1, j, y)
			data.Set(2, j, f(x, y))
		}
	}
	return data
}
