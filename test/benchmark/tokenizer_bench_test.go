package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Sisa1265/VINF/internal/indexer/tokenizer"
)

var sampleTexts = map[string]string{
	"short": "Aspirin is used to treat pain and reduce fever or inflammation",
	"medium": `Methotrexate is used to treat certain types of cancer of the breast, skin,
        head and neck, or lung. It is also used to treat severe psoriasis and rheumatoid
        arthritis. Methotrexate is usually given after other medications have been tried
        without successful treatment of symptoms. Take methotrexate exactly as prescribed;
        taking it every day instead of once weekly has caused fatal overdoses.`,
	"long": strings.Repeat(`Tofacitinib is a Janus kinase inhibitor used to treat moderate
        to severe rheumatoid arthritis, psoriatic arthritis, and ulcerative colitis. Dosage
        forms include 5 mg and 10 mg tablets and an 11 mg extended-release tablet. Common
        side effects include upper respiratory tract infection, headache, and diarrhea.
        Serious infections, malignancy, and thrombosis have been reported; a boxed warning
        applies. The usual dose is 5 mg twice daily or 11 mg extended-release once daily. `, 20),
}

func BenchmarkTokenize(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				tokens := tokenizer.Tokenize(text, tokenizer.DefaultMinTokenLen)
				_ = tokens
			}
		})
	}
}

func BenchmarkTokenizeParallel(b *testing.B) {
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			tokens := tokenizer.Tokenize(text, tokenizer.DefaultMinTokenLen)
			_ = tokens
		}
	})
}

func BenchmarkTokenizeVaryingSize(b *testing.B) {
	sizes := []int{10, 100, 500, 1000, 5000}
	baseWord := "methotrexate 2.5 mg tablets once weekly dosage "
	for _, size := range sizes {
		text := strings.Repeat(baseWord, size/len(baseWord)+1)[:size]
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				tokens := tokenizer.Tokenize(text, tokenizer.DefaultMinTokenLen)
				_ = tokens
			}
		})
	}
}
