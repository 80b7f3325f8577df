package resolver

import "fmt"

// UploadMapping maps remote object names to the local files uploaded for the
// single destination origin, including the subsampled outputs of every build.
func (r *Resolver) UploadMapping() (map[string]string, error) {
	if n := len(r.cfg.S3DstOrigins); n != 1 {
		return nil, fmt.Errorf("%w: %d destination origins configured", ErrUploadOrigins, n)
	}
	origin := r.cfg.S3DstOrigins[0]

	uploads := map[string]string{
		"aligned.fasta.xz":          fmt.Sprintf("results/aligned_%s.fasta.xz", origin),
		"masked.fasta.xz":           fmt.Sprintf("results/masked_%s.fasta.xz", origin),
		"filtered.fasta.xz":         fmt.Sprintf("results/filtered_%s.fasta.xz", origin),
		"to-exclude.txt":            fmt.Sprintf("results/to-exclude_%s.txt", origin),
		"mutation-summary.tsv.xz":   fmt.Sprintf("results/mutation_summary_%s.tsv.xz", origin),
		"sanitized_metadata.tsv.xz": fmt.Sprintf("results/sanitized_metadata_%s.tsv.xz", origin),
		"nextclade_qc.tsv":          fmt.Sprintf("results/nextclade_qc_%s.tsv", origin),
	}
	for _, b := range r.cfg.Builds {
		uploads[b.Name+"/sequences.fasta.xz"] = fmt.Sprintf("results/%s/%s_subsampled_sequences.fasta.xz", b.Name, b.Name)
		uploads[b.Name+"/metadata.tsv.xz"] = fmt.Sprintf("results/%s/%s_subsampled_metadata.tsv.xz", b.Name, b.Name)
	}
	return uploads, nil
}
