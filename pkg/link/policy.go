package link

import (
	"archive/zip"
	"bytes"
	"encoding/hex"
	"io"
	"os"
	"strings"

	"github.com/linkforge/linkforge/pkg/errors"
)

// jmodMagic is the 4-byte header preceding the zip payload of a jmod archive.
var jmodMagic = []byte{'J', 'M', 0x01, 0x00}

// policyEntry is the security policy file inside the base module archive.
const policyEntry = "lib/security/default.policy"

// The two grant blocks appended to the default policy. The first covers the
// enterprise compiler's protection domain, the second the language runtime
// domains (and the on-disk language homes).
const enterpriseGrantMarker = `grant codeBase "jrt:/com.oracle.graal.graal_enterprise"`

const enterpriseGrant = `
grant codeBase "jrt:/com.oracle.graal.graal_enterprise" {
    permission java.security.AllPermission;
};
`

const truffleGrantMarker = `grant codeBase "jrt:/org.graalvm.truffle"`

const truffleGrant = `
grant codeBase "jrt:/org.graalvm.truffle" {
    permission java.security.AllPermission;
};

grant codeBase "jrt:/org.graalvm.sdk" {
    permission java.security.AllPermission;
};

grant codeBase "jrt:/org.graalvm.locator" {
  permission java.io.FilePermission "<<ALL FILES>>", "read";
  permission java.util.PropertyPermission "*", "read,write";
  permission java.lang.RuntimePermission "createClassLoader";
  permission java.lang.RuntimePermission "getClassLoader";
  permission java.lang.RuntimePermission "getenv.*";
};

grant codeBase "file:${java.home}/languages/-" {
    permission java.security.AllPermission;
};
`

// PatchOutcome reports what the policy patch did.
type PatchOutcome string

const (
	// PatchModified means at least one grant block was appended.
	PatchModified PatchOutcome = "modified"
	// PatchUnmodified means both grant blocks were already present.
	PatchUnmodified PatchOutcome = "unmodified"
)

// PatchBasePolicy copies the base module archive from src to dst, appending
// the two fixed permission grants to its security policy file when they are
// not already present.
//
// The patch is idempotent: re-patching an already-patched archive detects the
// existing grant text and copies the entry unchanged, reporting
// PatchUnmodified. A base archive without the policy entry signals an
// incompatibly changed runtime layout and is fatal (POLICY_PATCH_LAYOUT).
func PatchBasePolicy(src, dst string) (PatchOutcome, error) {
	srcFile, err := os.Open(src)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeRuntimeLayout, err, "cannot open base module archive")
	}
	defer srcFile.Close()

	header := make([]byte, len(jmodMagic))
	if _, err := io.ReadFull(srcFile, header); err != nil || !bytes.Equal(header, jmodMagic) {
		return "", errors.New(errors.ErrCodePolicyPatchLayout,
			"unexpected jmod header in %s: %s", src, hex.EncodeToString(header))
	}

	info, err := srcFile.Stat()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "cannot stat %s", src)
	}
	payload := io.NewSectionReader(srcFile, int64(len(jmodMagic)), info.Size()-int64(len(jmodMagic)))
	srcZip, err := zip.NewReader(payload, payload.Size())
	if err != nil {
		return "", errors.Wrap(errors.ErrCodePolicyPatchLayout, err, "cannot read zip payload of %s", src)
	}

	dstFile, err := os.Create(dst)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "cannot create %s", dst)
	}
	defer dstFile.Close()

	if _, err := dstFile.Write(jmodMagic); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "cannot write jmod header")
	}

	outcome := PatchOutcome("not found")
	dstZip := zip.NewWriter(dstFile)
	for _, entry := range srcZip.File {
		if strings.HasSuffix(entry.Name, "/") {
			continue
		}
		content, err := readZipFile(entry)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeInternal, err, "cannot read %s from %s", entry.Name, src)
		}

		if entry.Name == policyEntry {
			outcome = PatchUnmodified
			if !bytes.Contains(content, []byte(enterpriseGrantMarker)) {
				outcome = PatchModified
				content = append(content, []byte(enterpriseGrant)...)
			}
			if !bytes.Contains(content, []byte(truffleGrantMarker)) {
				outcome = PatchModified
				content = append(content, []byte(truffleGrant)...)
			}
		}

		w, err := dstZip.CreateHeader(&zip.FileHeader{
			Name:     entry.Name,
			Method:   zip.Deflate,
			Modified: entry.Modified,
		})
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeInternal, err, "cannot write %s to %s", entry.Name, dst)
		}
		if _, err := w.Write(content); err != nil {
			return "", errors.Wrap(errors.ErrCodeInternal, err, "cannot write %s to %s", entry.Name, dst)
		}
	}
	if err := dstZip.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "cannot finalize %s", dst)
	}
	// The zip writer buffers; a failed file close means a truncated archive.
	if err := dstFile.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "cannot finalize %s", dst)
	}

	if outcome != PatchModified && outcome != PatchUnmodified {
		return "", errors.New(errors.ErrCodePolicyPatchLayout,
			"couldn't find %s in %s", policyEntry, src)
	}
	return outcome, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
