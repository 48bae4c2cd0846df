// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vision

// transcribePrompt asks for a faithful Markdown rendition of a page image.
// The ![...](image_placeholder) form it mandates is the contract with the
// placeholder merger, which swaps those markers for real image references.
const transcribePrompt = `Analyze this document page image and convert its content to Markdown.

Pay special attention to code blocks and shell commands that may appear in
light gray boxes with faint, low-contrast text. These sections are easy to
miss and must not be skipped, including command-line examples with $ prompts.

Rules:
1. Preserve the document structure: headings, paragraphs, lists, tables,
   code blocks.
2. Extract every code block, even when the text is light gray on a light
   background: shell commands starting with $, file paths, command examples.
3. Use proper Markdown syntax:
   - # for main titles, ## for sections, ### for subsections
   - - or * for bullet lists, 1. 2. 3. for numbered lists
   - | for tables with proper alignment
   - fenced code blocks (use the bash language tag for shell commands)
   - > for quotes and callouts
4. For images and diagrams on the page, write exactly:
   ![Description of the image](image_placeholder)
5. Maintain reading order: top to bottom, left to right.
6. Keep text accurate; do not paraphrase or summarize.
7. Headers and footers may be skipped or marked as <!-- header --> or
   <!-- footer -->.

Output only the Markdown content, no explanations.`

// captionPrompt asks for alt text for a single extracted image.
const captionPrompt = `Describe this image or diagram concisely for a Markdown document.

Focus on:
- what kind of image it is (screenshot, diagram, chart, illustration)
- the key elements and how they relate
- any text visible in the image
- the purpose or meaning it conveys

Provide a 1-3 sentence description suitable as image alt text.`
