package format

import "testing"

func TestDetectDelimiter_ConsistentPipes(t *testing.T) {
	sample := []byte("cups|tipo|fecha_desde|fecha_hasta\nES1|41|2024-01-01|2024-01-31\nES2|41|2024-01-01|2024-01-31\n")
	if got := detectDelimiter(sample); got != '|' {
		t.Fatalf("expected '|', got %q", got)
	}
}

func TestDetectDelimiter_Semicolons(t *testing.T) {
	sample := []byte("a;b;c\n1;2;3\n4;5;6\n")
	if got := detectDelimiter(sample); got != ';' {
		t.Fatalf("expected ';', got %q", got)
	}
}

func TestDetectDelimiter_HeaderOnlyFallback(t *testing.T) {
	// One line gives no variance signal; the header count decides.
	sample := []byte("cups;tipo;fecha_desde;fecha_hasta;p1")
	if got := detectDelimiter(sample); got != ';' {
		t.Fatalf("expected ';', got %q", got)
	}
}

func TestDetectDelimiter_DefaultsToComma(t *testing.T) {
	sample := []byte("just some text")
	if got := detectDelimiter(sample); got != ',' {
		t.Fatalf("expected ',', got %q", got)
	}
}

func TestDetectDelimiter_QuotedFieldsIgnored(t *testing.T) {
	sample := []byte("a|\"x,y,z,w,v\"|c\n1|\"2,3,4,5,6\"|3\n7|8|9\n")
	if got := detectDelimiter(sample); got != '|' {
		t.Fatalf("expected '|', got %q", got)
	}
}

func TestSniff_DelimitedHeaderMapping(t *testing.T) {
	content := []byte("cups,tipo,fecha_desde,fecha_hasta,p1,p2,p3,p4,p5,p6\n" +
		"ES0021000000001234AB,41,2024-01-01,2024-01-31,1,2,3,4,5,6\n")
	input, err := Sniff("datos.csv", content)
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	if input.Kind != Delimited || input.Delimiter != ',' {
		t.Fatalf("unexpected format: %+v", input)
	}
	extractor, err := NewExtractor(input, content)
	if err != nil {
		t.Fatalf("extractor: %v", err)
	}
	entries := drain(t, extractor)
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	row := entries[0].Row
	if entries[0].Line != 2 {
		t.Fatalf("expected line 2, got %d", entries[0].Line)
	}
	if row.CUPS != "ES0021000000001234AB" || row.Type != "41" {
		t.Fatalf("scalar mapping wrong: %+v", row)
	}
	if row.NetGenerated[0] != "1" || row.NetGenerated[5] != "6" {
		t.Fatalf("p columns must map to the net vector: %v", row.NetGenerated)
	}
	if row.SelfConsumed[0] != "" {
		t.Fatalf("unmapped vector must stay blank: %v", row.SelfConsumed)
	}
}

func TestSniff_DelimitedFullHeader(t *testing.T) {
	content := []byte("cups_cliente|instalacion_gen|tipo_autoconsumo|fecha_desde|fecha_hasta|" +
		"energia_neta_gen_1|energia_neta_gen_2|energia_neta_gen_3|energia_neta_gen_4|energia_neta_gen_5|energia_neta_gen_6|" +
		"cons_p1|cons_p2|cons_p3|cons_p4|cons_p5|cons_p6|" +
		"tda_p1|tda_p2|tda_p3|tda_p4|tda_p5|tda_p6\n" +
		"ES0021000000001234AB|INST-9|51|2024-03-01|2024-03-31|1|2|3|4|5|6|7|8|9|10|11|12|13|14|15|16|17|18\n")
	input, err := Sniff("datos.txt", content)
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	if input.Delimiter != '|' {
		t.Fatalf("expected '|', got %q", input.Delimiter)
	}
	extractor, err := NewExtractor(input, content)
	if err != nil {
		t.Fatalf("extractor: %v", err)
	}
	entries := drain(t, extractor)
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	row := entries[0].Row
	if row.Installation != "INST-9" {
		t.Fatalf("installation: got %q", row.Installation)
	}
	if row.SelfConsumed[0] != "7" || row.TollPayment[5] != "18" {
		t.Fatalf("vector mapping wrong: %v %v", row.SelfConsumed, row.TollPayment)
	}
}

func TestSniff_DelimitedMissingColumns(t *testing.T) {
	content := []byte("cups,fecha_desde,fecha_hasta\nES1,2024-01-01,2024-01-31\n")
	_, err := Sniff("datos.csv", content)
	structural, ok := err.(*StructuralError)
	if !ok {
		t.Fatalf("expected structural error, got %v", err)
	}
	if structural.Line != 1 {
		t.Fatalf("expected line 1, got %d", structural.Line)
	}
}

func TestDelimited_SkipsBlankLines(t *testing.T) {
	content := []byte("cups,tipo,fecha_desde,fecha_hasta\nES1,41,2024-01-01,2024-01-31\n\nES2,41,2024-02-01,2024-02-28\n")
	input, err := Sniff("datos.csv", content)
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	extractor, err := NewExtractor(input, content)
	if err != nil {
		t.Fatalf("extractor: %v", err)
	}
	entries := drain(t, extractor)
	if len(entries) != 2 {
		t.Fatalf("expected two entries, got %d", len(entries))
	}
	if entries[0].Row.CUPS != "ES1" || entries[1].Row.CUPS != "ES2" {
		t.Fatalf("unexpected rows: %+v", entries)
	}
}
