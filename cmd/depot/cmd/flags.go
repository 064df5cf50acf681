package cmd

type flagsT struct {
	root struct {
		logLevel string
		config   string
	}
	upload struct {
		Parent   string
		Name     string
		MimeType string
	}
	download struct {
		Output string
	}
	folder struct {
		Parent string
	}
	delete struct {
		Recursive bool
	}
	export struct {
		Output      string
		Concurrency int
	}
}

var depotFlags flagsT
