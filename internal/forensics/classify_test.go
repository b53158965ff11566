package forensics

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		path string
		want MediaCategory
	}{
		{"photo.png", CategoryImages},
		{"photo.JPG", CategoryImages},
		{"clip.mp4", CategoryVideo},
		{"clip.MKV", CategoryVideo},
		{"voice.mp3", CategoryAudio},
		{"voice.m4a", CategoryAudio},
		{"notes.txt", CategoryDocuments},
		{"report.pdf", CategoryDocuments},
		{"report.docx", CategoryDocuments},
		{"archive.zip", CategoryUnsupported},
		{"binary.exe", CategoryUnsupported},
		{"noextension", CategoryUnsupported},
		{"/tmp/session/evidence.TXT", CategoryDocuments},
	}
	for _, c := range cases {
		if got := Classify(c.path); got != c.want {
			t.Fatalf("Classify(%q) = %s, want %s", c.path, got, c.want)
		}
	}
}

func TestClassifyIsStable(t *testing.T) {
	for i := 0; i < 3; i++ {
		if got := Classify("evidence.pdf"); got != CategoryDocuments {
			t.Fatalf("classification changed on repeat call: %s", got)
		}
	}
}

func TestBucketPreservesOrderAndDropsUnsupported(t *testing.T) {
	paths := []string{"a.txt", "b.zip", "c.png", "d.txt", "e.mp3"}
	buckets := Bucket(paths)

	docs := buckets[CategoryDocuments]
	if len(docs) != 2 || docs[0].DisplayName != "a.txt" || docs[1].DisplayName != "d.txt" {
		t.Fatalf("unexpected document bucket: %#v", docs)
	}
	if len(buckets[CategoryImages]) != 1 || len(buckets[CategoryAudio]) != 1 {
		t.Fatalf("unexpected buckets: %#v", buckets)
	}
	if got := ClassifiedCount(buckets); got != 4 {
		t.Fatalf("ClassifiedCount = %d, want 4", got)
	}
	for _, files := range buckets {
		for _, f := range files {
			if f.Category == CategoryUnsupported {
				t.Fatalf("unsupported file leaked into buckets: %#v", f)
			}
		}
	}
}
