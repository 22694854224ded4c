// Package solver turns a set of complete ephemerides plus the
// receiver's current wall-clock time into a pseudorange-only (SPP) PVT
// fix: SV ECEF position from Keplerian orbital elements, and a
// Gauss-Newton least-squares solve for receiver position and clock
// bias. Ground-truthed against original_source's solver.rs for the
// pseudorange/ECEF math and FengXuebin-gnssgo's pntpos.go for the LSQ
// shape.
package solver

import (
	"math"

	"github.com/charmbracelet/log"
	"github.com/golang/geo/s2"
	"github.com/gnssrx/gnssrx/internal/navigation"
)

// speedOfLight is the value spec.md's pseudorange-to-meters conversion
// uses.
const speedOfLight = 299_792_458.0

// Config holds the solver's tunable/unresolved-provenance constants.
type Config struct {
	// BaseDelaySec is spec.md §9's "BASE_DELAY of 68.802 ms added to
	// every pseudorange in some solver revisions" open question:
	// provenance unclear, so it is exposed as a configurable constant
	// (default 0) rather than hard-coded.
	BaseDelaySec float64
}

// DefaultConfig returns a solver configuration with no base-delay
// correction applied.
func DefaultConfig() Config {
	return Config{BaseDelaySec: 0}
}

// Result is a converged PVT fix.
type Result struct {
	ECEF         [3]float64
	LatLng       s2.LatLng
	HeightM      float64
	ClockBiasSec float64
	Iterations   int
	NumSVs       int
}

// Solver is stateless across calls; it only carries configuration. One
// instance is shared by the receiver across all fix attempts.
type Solver struct {
	cfg Config
}

// New returns a Solver using cfg.
func New(cfg Config) *Solver {
	return &Solver{cfg: cfg}
}

// genevaApriori is the original solver's apriori position ("somewhere
// in the middle of Lake Leman"), reused verbatim as the LSQ seed -- any
// reasonable seed converges in a handful of iterations for a
// well-conditioned GPS fit, so the seed's accuracy doesn't matter.
var genevaAprioriLat, genevaAprioriLon = 46.5, 6.6

// Solve computes a PVT fix at tsSec (receiver wall-clock time) from a
// set of complete ephemerides, per spec.md §4.5. Returns ok=false
// silently if fewer than 4 ephemerides are supplied, and returns ok=false
// with a log line if the least-squares fit fails to converge; callers should leave a previously published fix
// untouched in that case (spec.md §7).
func (s *Solver) Solve(tsSec float64, ephs []navigation.Ephemeris) (Result, bool) {
	if len(ephs) < 4 {
		return Result{}, false
	}

	tRef := ephs[0].TOWGpst + (tsSec - ephs[0].TSSec)
	for _, e := range ephs[1:] {
		eGpst := e.TOWGpst + (tsSec - e.TSSec)
		if eGpst < tRef {
			tRef = eGpst
		}
	}

	cands := make([]candidate, 0, len(ephs))
	for _, e := range ephs {
		eGpst := e.TOWGpst + (tsSec - e.TSSec)
		rhoSec := (eGpst - tRef) + e.CodeOffSec + s.cfg.BaseDelaySec
		rhoM := rhoSec * speedOfLight

		x, y, z := svPositionECEF(e, eGpst)
		cands = append(cands, candidate{prn: e.PRN, rangeM: rhoM, x: x, y: y, z: z})
	}

	x0, y0, z0 := geodeticToECEF(genevaAprioriLat*math.Pi/180, genevaAprioriLon*math.Pi/180, 0)
	fit, err := estimatePosition(cands, x0, y0, z0)
	if err != nil {
		log.Warn("solver did not converge", "err", err, "n_svs", len(cands))
		return Result{}, false
	}

	latRad, lonRad, heightM := ecefToGeodetic(fit.x, fit.y, fit.z)
	return Result{
		ECEF:         [3]float64{fit.x, fit.y, fit.z},
		LatLng:       s2.LatLngFromDegrees(latRad*180/math.Pi, lonRad*180/math.Pi),
		HeightM:      heightM,
		ClockBiasSec: fit.clockBiasSec,
		Iterations:   fit.iterations,
		NumSVs:       len(cands),
	}, true
}
